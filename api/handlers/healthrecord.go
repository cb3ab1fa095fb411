package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

const healthRecordsPerPage = 10

// HealthRecord exported for testing purposes
type HealthRecord struct {
	DB databases.HealthRecordDatabase
}

// HealthRecordHandler returns a paginated slice of health records. Residents
// only see records filed for them.
func (h HealthRecord) HealthRecordHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	filter := bson.M{}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["healthRecord.category"] = category
	}
	if user.IsAdmin() {
		if reportedBy := r.URL.Query().Get("reportedBy"); reportedBy != "" {
			filter["healthRecord.reportedBy"] = reportedBy
		}
	} else {
		filter["healthRecord.reportedBy"] = user.Username
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if r.URL.Query().Get("format") == "csv" {
		h.exportCSV(ctx, w, filter)
		return
	}

	page := getPage(Page, r)
	limit64 := int64(healthRecordsPerPage)
	skip64 := int64(page * healthRecordsPerPage)

	dbResp, err := h.DB.Find(ctx, filter, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"healthRecord.createdAt": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get health records", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.HealthRecord{}
	}

	total, err := h.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count health records", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"items": dbResp,
		"total": total,
		"page":  page,
		"limit": healthRecordsPerPage,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

var healthRecordCSVHeader = []string{
	"category", "patientName", "reportedBy", "recordedBy", "createdAt",
	"bloodPressure", "heartRate", "temperatureC", "weightKg", "notes",
}

func (h HealthRecord) exportCSV(ctx context.Context, w http.ResponseWriter, filter bson.M) {
	dbResp, err := h.DB.Find(ctx, filter, &options.FindOptions{
		Sort: bson.M{"healthRecord.createdAt": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get health records", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="health-records.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write(healthRecordCSVHeader)
	for _, rec := range dbResp {
		d := rec.Details
		cw.Write([]string{
			d.Category,
			d.PatientName,
			d.ReportedBy,
			d.RecordedBy,
			d.CreatedAt.Time().UTC().Format(time.RFC3339),
			d.Vitals.BloodPressure,
			strconv.Itoa(d.Vitals.HeartRate),
			strconv.FormatFloat(d.Vitals.TemperatureC, 'f', -1, 64),
			strconv.FormatFloat(d.Vitals.WeightKg, 'f', -1, 64),
			d.Notes,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		zap.S().Errorw("failed to write csv export", "error", err)
	}
}

// HealthRecordByIDHandler returns a single health record by ID
func (h HealthRecord) HealthRecordByIDHandler(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["record_id"]

	rID, err := primitive.ObjectIDFromHex(recordID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get health record by ID", http.StatusNotFound, w, err)
		return
	}
	if !user.IsAdmin() && dbResp.Details.ReportedBy != user.Username {
		config.ErrorStatus("Admin only.", http.StatusForbidden, w,
			fmt.Errorf("user %s cannot view this health record", user.Username))
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type healthRecordRequest struct {
	Category    string              `json:"category"`
	PatientName string              `json:"patientName"`
	Notes       string              `json:"notes,omitempty"`
	Vitals      models.HealthVitals `json:"vitals,omitempty"`
	ReportedBy  string              `json:"reportedBy"`
}

// CreateHealthRecordHandler files a health record for a resident
func (h HealthRecord) CreateHealthRecordHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	var req healthRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Category == "" || req.PatientName == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w,
			fmt.Errorf("category and patientName are required"))
		return
	}

	reportedBy := req.ReportedBy
	if !actor.IsAdmin() || reportedBy == "" {
		reportedBy = actor.Username
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	record := models.HealthRecord{
		ID: primitive.NewObjectID(),
		Details: models.HealthRecordDetails{
			Category:    req.Category,
			PatientName: req.PatientName,
			Notes:       req.Notes,
			Vitals:      req.Vitals,
			ReportedBy:  reportedBy,
			RecordedBy:  actor.Username,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := h.DB.InsertOne(ctx, record)
	if err != nil {
		config.ErrorStatus("failed to insert health record", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(record)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DeleteHealthRecordHandler removes a health record
func (h HealthRecord) DeleteHealthRecordHandler(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["record_id"]

	rID, err := primitive.ObjectIDFromHex(recordID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := h.DB.DeleteOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to delete health record", http.StatusInternalServerError, w, err)
		return
	}
	if res.DeletedCount == 0 {
		config.ErrorStatus("health record not found", http.StatusNotFound, w,
			fmt.Errorf("no health record with id %s", recordID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Health record deleted"})
}
