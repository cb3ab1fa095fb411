package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

const activityLogsPerPage = 25

// ActivityLog exported for testing purposes
type ActivityLog struct {
	DB databases.ActivityLogDatabase
}

// ActivityLogHandler returns a paginated slice of the audit trail, newest
// first
func (a ActivityLog) ActivityLogHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if module := r.URL.Query().Get("module"); module != "" {
		filter["activity.module"] = module
	}
	if actor := r.URL.Query().Get("actor"); actor != "" {
		filter["activity.actor"] = actor
	}

	page := getPage(Page, r)
	limit64 := int64(activityLogsPerPage)
	skip64 := int64(page * activityLogsPerPage)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := a.DB.Find(ctx, filter, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"activity.createdAt": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get activity logs", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ActivityLog{}
	}

	total, err := a.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count activity logs", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"items": dbResp,
		"total": total,
		"page":  page,
		"limit": activityLogsPerPage,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
