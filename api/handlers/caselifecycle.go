package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/models"
)

// NormalizeStatus resolves a requested status to one of the five canonical
// states. Matching is case-insensitive and the legacy alias "Pending" maps
// to Reported. An empty string return means the status is unknown.
func NormalizeStatus(requested string) string {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "reported", "pending":
		return models.StatusReported
	case "ongoing":
		return models.StatusOngoing
	case "hearing":
		return models.StatusHearing
	case "resolved":
		return models.StatusResolved
	case "cancelled":
		return models.StatusCancelled
	default:
		return ""
	}
}

type statusChangeRequest struct {
	Status             string `json:"status"`
	Note               string `json:"note,omitempty"`
	CancellationReason string `json:"cancellationReason,omitempty"`
}

// UpdateCaseStatusHandler moves a case to a new lifecycle state. Any state is
// reachable from any other: transitions are administrative overrides, not a
// guarded workflow. Each call appends exactly one status history entry and
// notifies the original reporter after the update has been read back.
func (c Case) UpdateCaseStatusHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	status := NormalizeStatus(req.Status)
	if status == "" {
		config.ErrorStatus("invalid status", http.StatusBadRequest, w,
			fmt.Errorf("status %q is not one of Reported, Ongoing, Hearing, Resolved, Cancelled", req.Status))
		return
	}

	actor, _ := api.AuthUserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	set := bson.M{
		"case.status":    status,
		"case.updatedAt": now,
	}

	switch status {
	case models.StatusOngoing:
		// ongoingSince is set exactly once; setting it re-arms the overdue
		// watcher for the new ongoing period.
		if existing.Details.OngoingSince == nil {
			set["case.ongoingSince"] = now
			set["case.over45Notified"] = false
		}
	case models.StatusResolved:
		if existing.Details.ResolveDate == nil {
			set["case.resolveDate"] = now
		}
	case models.StatusCancelled:
		if existing.Details.CancelDate == nil {
			set["case.cancelDate"] = now
		}
		if req.CancellationReason != "" {
			set["case.cancellationReason"] = req.CancellationReason
		}
	}

	historyEntry := models.StatusChange{
		Status: status,
		At:     now,
		By:     actor.Username,
		Note:   req.Note,
	}

	_, err = c.DB.UpdateOne(ctx, bson.M{"_id": cID}, bson.M{
		"$set":  set,
		"$push": bson.M{"case.statusHistory": historyEntry},
	})
	if err != nil {
		config.ErrorStatus("failed to update case status", http.StatusInternalServerError, w, err)
		return
	}

	// Read the post-update document back so notifications reference what was
	// actually persisted, not what we intended to write.
	updated, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to read back updated case", http.StatusInternalServerError, w, err)
		return
	}

	if c.Notifier != nil {
		c.Notifier.Notify(ctx, updated, models.NotificationStatusChange,
			fmt.Sprintf("Your case %s is now %s.", updated.Details.CaseID, status))
		if status == models.StatusCancelled {
			msg := fmt.Sprintf("Your case %s has been cancelled.", updated.Details.CaseID)
			if updated.Details.CancellationReason != "" {
				msg = fmt.Sprintf("%s Reason: %s", msg, updated.Details.CancellationReason)
			}
			c.Notifier.Notify(ctx, updated, models.NotificationCancelled, msg)
		}
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
