package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

const incidentsPerPage = 10

// Incident exported for testing purposes
type Incident struct {
	DB databases.IncidentDatabase
}

// IncidentHandler returns a paginated slice of disaster incidents. Incident
// reports are visible to every authenticated user; the whole barangay needs
// to see an active flood.
func (i Incident) IncidentHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["incident.status"] = status
	}
	if incidentType := r.URL.Query().Get("incidentType"); incidentType != "" {
		filter["incident.incidentType"] = incidentType
	}
	if severity := r.URL.Query().Get("severity"); severity != "" {
		filter["incident.severity"] = severity
	}

	page := getPage(Page, r)
	limit64 := int64(incidentsPerPage)
	skip64 := int64(page * incidentsPerPage)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := i.DB.Find(ctx, filter, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"incident.createdAt": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get incidents", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Incident{}
	}

	total, err := i.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count incidents", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"items": dbResp,
		"total": total,
		"page":  page,
		"limit": incidentsPerPage,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// IncidentByIDHandler returns a single incident by ID
func (i Incident) IncidentByIDHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := i.DB.FindOne(ctx, bson.M{"_id": iID})
	if err != nil {
		config.ErrorStatus("failed to get incident by ID", http.StatusNotFound, w, err)
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

type incidentRequest struct {
	IncidentType string `json:"incidentType"`
	Severity     string `json:"severity"`
	Location     string `json:"location"`
	Description  string `json:"description"`
}

// CreateIncidentHandler files a new disaster incident report
func (i Incident) CreateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	var req incidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.IncidentType == "" || req.Location == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w,
			fmt.Errorf("incidentType and location are required"))
		return
	}
	if req.Severity == "" {
		req.Severity = "moderate"
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	incident := models.Incident{
		ID: primitive.NewObjectID(),
		Details: models.IncidentDetails{
			IncidentType: req.IncidentType,
			Severity:     req.Severity,
			Location:     req.Location,
			Description:  req.Description,
			Status:       models.IncidentActive,
			ReportedBy:   user.Username,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := i.DB.InsertOne(ctx, incident)
	if err != nil {
		config.ErrorStatus("failed to insert incident", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(incident)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// RespondIncidentHandler marks an active incident as responded. respondedAt
// is stamped on the first response only.
func (i Incident) RespondIncidentHandler(w http.ResponseWriter, r *http.Request) {
	i.transitionIncident(w, r, models.IncidentResponded)
}

// CloseIncidentHandler closes an incident
func (i Incident) CloseIncidentHandler(w http.ResponseWriter, r *http.Request) {
	i.transitionIncident(w, r, models.IncidentClosed)
}

func (i Incident) transitionIncident(w http.ResponseWriter, r *http.Request, status string) {
	incidentID := mux.Vars(r)["incident_id"]

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, _ := api.AuthUserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := i.DB.FindOne(ctx, bson.M{"_id": iID})
	if err != nil {
		config.ErrorStatus("failed to find incident", http.StatusNotFound, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	set := bson.M{
		"incident.status":    status,
		"incident.updatedAt": now,
	}
	switch status {
	case models.IncidentResponded:
		if existing.Details.RespondedAt == nil {
			set["incident.respondedAt"] = now
			set["incident.respondedBy"] = actor.Username
		}
	case models.IncidentClosed:
		if existing.Details.ClosedAt == nil {
			set["incident.closedAt"] = now
		}
	}

	_, err = i.DB.UpdateOne(ctx, bson.M{"_id": iID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update incident", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := i.DB.FindOne(ctx, bson.M{"_id": iID})
	if err != nil {
		config.ErrorStatus("failed to read back updated incident", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
