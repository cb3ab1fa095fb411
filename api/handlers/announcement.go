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

const announcementsPerPage = 10

// Announcement exported for testing purposes
type Announcement struct {
	DB databases.AnnouncementDatabase
}

// AnnouncementHandler returns a paginated slice of announcements, pinned
// entries first then newest first
func (a Announcement) AnnouncementHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["announcement.category"] = category
	}

	page := getPage(Page, r)
	limit64 := int64(announcementsPerPage)
	skip64 := int64(page * announcementsPerPage)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := a.DB.Find(ctx, filter, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.D{{Key: "announcement.pinned", Value: -1}, {Key: "announcement.createdAt", Value: -1}},
	})
	if err != nil {
		config.ErrorStatus("failed to get announcements", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Announcement{}
	}

	total, err := a.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count announcements", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"items": dbResp,
		"total": total,
		"page":  page,
		"limit": announcementsPerPage,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type announcementRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category,omitempty"`
	Pinned   bool   `json:"pinned,omitempty"`
}

// CreateAnnouncementHandler posts a new announcement
func (a Announcement) CreateAnnouncementHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.AuthUserFromContext(r.Context())

	var req announcementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Title == "" || req.Body == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w,
			fmt.Errorf("title and body are required"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	announcement := models.Announcement{
		ID: primitive.NewObjectID(),
		Details: models.AnnouncementDetails{
			Title:     req.Title,
			Body:      req.Body,
			Category:  req.Category,
			PostedBy:  actor.Username,
			Pinned:    req.Pinned,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := a.DB.InsertOne(ctx, announcement)
	if err != nil {
		config.ErrorStatus("failed to insert announcement", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(announcement)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DeleteAnnouncementHandler removes an announcement
func (a Announcement) DeleteAnnouncementHandler(w http.ResponseWriter, r *http.Request) {
	announcementID := mux.Vars(r)["announcement_id"]

	aID, err := primitive.ObjectIDFromHex(announcementID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := a.DB.DeleteOne(ctx, bson.M{"_id": aID})
	if err != nil {
		config.ErrorStatus("failed to delete announcement", http.StatusInternalServerError, w, err)
		return
	}
	if res.DeletedCount == 0 {
		config.ErrorStatus("announcement not found", http.StatusNotFound, w,
			fmt.Errorf("no announcement with id %s", announcementID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Announcement deleted"})
}
