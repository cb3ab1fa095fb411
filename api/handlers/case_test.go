package handlers_test

import (
	"bytes"
	"encoding/csv"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/api/handlers"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/databases/mocks"
	"github.com/barangayportal/barangay-portal-api/models"
)

// findResult builds a CursorHelper whose All fills in the given case slice
func findResult(cases []models.Case) databases.CursorHelper {
	cursor := &mocks.CursorHelper{}
	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Case)
		*arg = cases
	})
	cursor.On("Close", mock.Anything).Return(nil)
	return cursor
}

func multipartCaseBody(t *testing.T, fields map[string]string, files []struct {
	name        string
	contentType string
}) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="evidences"; filename="`+f.name+`"`)
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte("file-contents")); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return body, writer.FormDataContentType()
}

func TestCreateCaseHandler_RejectsTooFewEvidenceFiles(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	db := &mocks.DatabaseHelper{}
	db.On("Collection", "cases").Return(conn)

	c := handlers.Case{DB: databases.NewCaseDatabase(db)}

	body, contentType := multipartCaseBody(t,
		map[string]string{
			"typeOfCase":      "Noise Complaint",
			"description":     "loud videoke past midnight",
			"placeOfIncident": "Purok 3",
		},
		[]struct {
			name        string
			contentType string
		}{
			{"a.pdf", "application/pdf"},
			{"b.pdf", "application/pdf"},
		})

	req, err := http.NewRequest("POST", "/api/v1/cases", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "maria", Role: models.RoleResident}))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "not enough evidence files")
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateCaseHandler_VandalismRequiresImageProof(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	db := &mocks.DatabaseHelper{}
	db.On("Collection", "cases").Return(conn)

	c := handlers.Case{DB: databases.NewCaseDatabase(db)}

	body, contentType := multipartCaseBody(t,
		map[string]string{
			"typeOfCase":      "Vandalism",
			"description":     "spray paint on the barangay hall wall",
			"placeOfIncident": "Barangay Hall",
		},
		[]struct {
			name        string
			contentType string
		}{
			{"a.pdf", "application/pdf"},
			{"b.pdf", "application/pdf"},
			{"c.pdf", "application/pdf"},
		})

	req, err := http.NewRequest("POST", "/api/v1/cases", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "maria", Role: models.RoleResident}))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "image")
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateCaseHandler_UploadSubsystemUnavailable(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	db := &mocks.DatabaseHelper{}
	db.On("Collection", "cases").Return(conn)

	// no CLOUDINARY_URL configured, the uploader reports unavailable
	c := handlers.Case{DB: databases.NewCaseDatabase(db), Uploader: &handlers.EvidenceUploader{}}

	body, contentType := multipartCaseBody(t,
		map[string]string{
			"typeOfCase":      "Vandalism",
			"description":     "spray paint on the barangay hall wall",
			"placeOfIncident": "Barangay Hall",
		},
		[]struct {
			name        string
			contentType string
		}{
			{"proof.jpg", "image/jpeg"},
			{"b.pdf", "application/pdf"},
			{"c.pdf", "application/pdf"},
		})

	req, err := http.NewRequest("POST", "/api/v1/cases", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "maria", Role: models.RoleResident}))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotImplemented, rr.Code)
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func overdueCase(cID primitive.ObjectID, notified bool) models.Case {
	ongoingSince := primitive.NewDateTimeFromTime(time.Now().AddDate(0, 0, -46))
	return models.Case{
		ID: cID,
		Details: models.CaseDetails{
			CaseID:         "C-0010",
			Status:         models.StatusOngoing,
			ReportedBy:     "maria",
			OngoingSince:   &ongoingSince,
			Over45Notified: notified,
		},
	}
}

func fetchCaseByID(c handlers.Case, cID primitive.ObjectID, user api.AuthUser) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/api/v1/cases/"+cID.Hex(), nil)
	req = req.WithContext(api.WithAuthUser(req.Context(), user))

	rr := httptest.NewRecorder()
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/cases/{case_id}", c.CaseByIDHandler).Methods("GET")
	r.ServeHTTP(rr, req)
	return rr
}

func TestCaseByIDHandler_FirstOverdueFetchNotifiesOnce(t *testing.T) {
	cID := primitive.NewObjectID()

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	notifConn := &mocks.CollectionHelper{}

	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(overdueCase(cID, false)))
	conn.On("UpdateOne", mock.Anything,
		bson.M{"_id": cID, "case.over45Notified": false}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	var notifiedType string
	notifConn.On("InsertOne", mock.Anything, mock.Anything).
		Return("inserted-id", nil).
		Run(func(args mock.Arguments) {
			notifiedType = args.Get(1).(models.CaseNotification).Details.Type
		})

	db.On("Collection", "cases").Return(conn)
	db.On("Collection", "casenotifications").Return(notifConn)

	c := handlers.Case{
		DB:       databases.NewCaseDatabase(db),
		Notifier: &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)},
	}

	rr := fetchCaseByID(c, cID, api.AuthUser{Username: "maria", Role: models.RoleResident})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "over45Note")
	assert.Equal(t, models.NotificationOverdue45Days, notifiedType)
	notifConn.AssertNumberOfCalls(t, "InsertOne", 1)
}

func TestCaseByIDHandler_SubsequentFetchesDoNotRenotify(t *testing.T) {
	cID := primitive.NewObjectID()

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	notifConn := &mocks.CollectionHelper{}

	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(overdueCase(cID, true)))

	db.On("Collection", "cases").Return(conn)
	db.On("Collection", "casenotifications").Return(notifConn)

	c := handlers.Case{
		DB:       databases.NewCaseDatabase(db),
		Notifier: &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)},
	}

	rr := fetchCaseByID(c, cID, api.AuthUser{Username: "maria", Role: models.RoleResident})

	assert.Equal(t, http.StatusOK, rr.Code)
	// the note is re-attached on every read, the notification is not
	assert.Contains(t, rr.Body.String(), "over45Note")
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	notifConn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCaseByIDHandler_LosesRaceToSweep(t *testing.T) {
	cID := primitive.NewObjectID()

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	notifConn := &mocks.CollectionHelper{}

	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(overdueCase(cID, false)))
	// the guard filter matched nothing: the sweep flipped the flag between
	// this read and the update, so the notification is the sweep's to send
	conn.On("UpdateOne", mock.Anything,
		bson.M{"_id": cID, "case.over45Notified": false}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0, ModifiedCount: 0}, nil)

	db.On("Collection", "cases").Return(conn)
	db.On("Collection", "casenotifications").Return(notifConn)

	c := handlers.Case{
		DB:       databases.NewCaseDatabase(db),
		Notifier: &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)},
	}

	rr := fetchCaseByID(c, cID, api.AuthUser{Username: "maria", Role: models.RoleResident})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "over45Note")
	notifConn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCaseHandler_ResidentForcedToOwnRecords(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	var capturedFilter bson.M
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(findResult(nil), nil).
		Run(func(args mock.Arguments) {
			capturedFilter = args.Get(1).(bson.M)
		})
	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)

	db.On("Collection", "cases").Return(conn)

	c := handlers.Case{DB: databases.NewCaseDatabase(db)}

	// a resident asking for someone else's filings still only gets their own
	req, _ := http.NewRequest("GET", "/api/v1/cases?reportedBy=somebody.else", nil)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "maria", Role: models.RoleResident}))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "maria", capturedFilter["case.reportedBy"])
}

func TestCaseHandler_CSVExportRoundTrips(t *testing.T) {
	cID := primitive.NewObjectID()
	created := primitive.NewDateTimeFromTime(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	caseDoc := models.Case{
		ID: cID,
		Details: models.CaseDetails{
			CaseID:          "C-0042",
			Status:          models.StatusOngoing,
			TypeOfCase:      "Boundary Dispute",
			ReportedBy:      "maria",
			CreatedAt:       created,
			DateOfIncident:  created,
			PlaceOfIncident: `Purok 7, "Sitio Malinis"`,
			Complainant:     models.Party{Name: "Maria Dela Cruz", Address: "Purok 7, Zone 2"},
			Respondent:      models.Party{Name: "Juan Reyes"},
		},
	}

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(findResult([]models.Case{caseDoc}), nil)

	db.On("Collection", "cases").Return(conn)

	c := handlers.Case{DB: databases.NewCaseDatabase(db)}

	req, _ := http.NewRequest("GET", "/api/v1/cases?format=csv", nil)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin}))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))

	records, err := csv.NewReader(rr.Body).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, []string{
		"caseId", "status", "typeOfCase", "reportedBy", "createdAt",
		"dateOfIncident", "placeOfIncident",
		"complainantName", "complainantAddress", "respondentName",
	}, records[0])

	row := records[1]
	assert.Equal(t, "C-0042", row[0])
	assert.Equal(t, models.StatusOngoing, row[1])
	assert.Equal(t, "Boundary Dispute", row[2])
	// quoting survives embedded commas and quotes
	assert.Equal(t, `Purok 7, "Sitio Malinis"`, row[6])
	assert.Equal(t, "Purok 7, Zone 2", row[8])
}

func TestDeleteCaseHandler_NotFound(t *testing.T) {
	cID := primitive.NewObjectID()

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("DeleteOne", mock.Anything, bson.M{"_id": cID}).
		Return(&mongo.DeleteResult{DeletedCount: 0}, nil)

	db.On("Collection", "cases").Return(conn)

	c := handlers.Case{DB: databases.NewCaseDatabase(db)}

	req, _ := http.NewRequest("DELETE", "/api/v1/cases/"+cID.Hex(), nil)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin}))

	rr := httptest.NewRecorder()
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/cases/{case_id}", c.DeleteCaseHandler).Methods("DELETE")
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAddPatawagHandler_OnlyWhileOngoing(t *testing.T) {
	cID := primitive.NewObjectID()
	resolved := models.Case{
		ID: cID,
		Details: models.CaseDetails{
			CaseID:     "C-0011",
			Status:     models.StatusResolved,
			ReportedBy: "maria",
		},
	}

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(resolved))

	db.On("Collection", "cases").Return(conn)

	c := handlers.Case{DB: databases.NewCaseDatabase(db)}

	body := bytes.NewBufferString(`{"scheduleDate":"2026-09-15T09:00:00Z","venue":"Barangay Hall"}`)
	req, _ := http.NewRequest("POST", "/api/v1/cases/"+cID.Hex()+"/patawag", body)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin}))

	rr := httptest.NewRecorder()
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/cases/{case_id}/patawag", c.AddPatawagHandler).Methods("POST")
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}
