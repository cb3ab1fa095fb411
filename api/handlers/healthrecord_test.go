package handlers_test

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/api/handlers"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/databases/mocks"
	"github.com/barangayportal/barangay-portal-api/models"
)

func healthRecordFindResult(records []models.HealthRecord) databases.CursorHelper {
	cursor := &mocks.CursorHelper{}
	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.HealthRecord)
		*arg = records
	})
	cursor.On("Close", mock.Anything).Return(nil)
	return cursor
}

func TestHealthRecordHandler_CSVExportRoundTrips(t *testing.T) {
	created := primitive.NewDateTimeFromTime(time.Date(2026, 4, 20, 8, 0, 0, 0, time.UTC))
	record := models.HealthRecord{
		ID: primitive.NewObjectID(),
		Details: models.HealthRecordDetails{
			Category:    "checkup",
			PatientName: `Dela Cruz, "Lola" Remedios`,
			Notes:       "BP elevated, follow up in 2 weeks",
			Vitals: models.HealthVitals{
				BloodPressure: "140/90",
				HeartRate:     82,
				TemperatureC:  36.8,
				WeightKg:      54.5,
			},
			ReportedBy: "maria",
			RecordedBy: "bhw.reyes",
			CreatedAt:  created,
		},
	}

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(healthRecordFindResult([]models.HealthRecord{record}), nil)

	db.On("Collection", "healthrecords").Return(conn)

	h := handlers.HealthRecord{DB: databases.NewHealthRecordDatabase(db)}

	req, _ := http.NewRequest("GET", "/api/v1/health-records?format=csv", nil)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin}))

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.HealthRecordHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))

	records, err := csv.NewReader(rr.Body).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, []string{
		"category", "patientName", "reportedBy", "recordedBy", "createdAt",
		"bloodPressure", "heartRate", "temperatureC", "weightKg", "notes",
	}, records[0])

	row := records[1]
	assert.Equal(t, "checkup", row[0])
	// quoting survives embedded commas and quotes
	assert.Equal(t, `Dela Cruz, "Lola" Remedios`, row[1])
	assert.Equal(t, "2026-04-20T08:00:00Z", row[4])
	assert.Equal(t, "82", row[6])
	assert.Equal(t, "54.5", row[8])
}

func TestHealthRecordHandler_ResidentForcedToOwnRecords(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	var capturedFilter bson.M
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(healthRecordFindResult(nil), nil).
		Run(func(args mock.Arguments) {
			capturedFilter = args.Get(1).(bson.M)
		})
	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)

	db.On("Collection", "healthrecords").Return(conn)

	h := handlers.HealthRecord{DB: databases.NewHealthRecordDatabase(db)}

	req, _ := http.NewRequest("GET", "/api/v1/health-records?reportedBy=somebody.else", nil)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "maria", Role: models.RoleResident}))

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.HealthRecordHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "maria", capturedFilter["healthRecord.reportedBy"])
}
