package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
	templates "github.com/barangayportal/barangay-portal-api/templates/html"
)

// CaseNotifier writes the per-recipient notification documents for case
// lifecycle events. Delivery is best effort: once the transition that
// triggered the event has committed, a failed notification insert is logged
// and dropped, never rolled back or retried.
type CaseNotifier struct {
	NDB databases.CaseNotificationDatabase
	UDB databases.UserDatabase
	Hub *NotificationHub
}

// Notify fans a single case event out to the case's original reporter. A
// case without a resolvable reporter username is a no-op.
func (n *CaseNotifier) Notify(ctx context.Context, caseDoc *models.Case, notifType, message string) {
	if caseDoc == nil || caseDoc.Details.ReportedBy == "" {
		return
	}

	recipient := models.NotificationRecipient{Username: caseDoc.Details.ReportedBy}
	var email string
	if n.UDB != nil {
		user, err := n.UDB.FindOne(ctx, bson.M{"user.username": caseDoc.Details.ReportedBy})
		if err == nil {
			recipient.Name = user.Details.Name
			email = user.Details.Email
		}
	}

	notification := models.CaseNotification{
		ID: primitive.NewObjectID(),
		Details: models.CaseNotificationDetails{
			CaseID:    caseDoc.ID.Hex(),
			CaseRef:   caseDoc.Details.CaseID,
			Type:      notifType,
			Message:   message,
			User:      recipient,
			Read:      false,
			CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
		},
	}

	_, err := n.NDB.InsertOne(ctx, notification)
	if err != nil {
		zap.S().Errorw("failed to persist case notification",
			"caseRef", caseDoc.Details.CaseID,
			"type", notifType,
			"error", err,
		)
		return
	}

	if n.Hub != nil {
		n.Hub.Push(recipient.Username, notification)
	}

	if email != "" && os.Getenv("SENDGRID_API_KEY") != "" {
		go n.sendEmail(email, recipient.Name, caseDoc.Details.CaseID, message)
	}
}

func (n *CaseNotifier) sendEmail(toEmail, toName, caseRef, message string) {
	from := mail.NewEmail("Barangay Portal", "no-reply@barangayportal.ph")
	to := mail.NewEmail(toName, toEmail)
	subject := "Update on your case " + caseRef
	htmlContent := templates.RenderCaseUpdateEmail(toName, caseRef, message)
	m := mail.NewSingleEmail(from, subject, to, message, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(m)
	if err != nil {
		zap.S().Errorw("failed to send case update email", "caseRef", caseRef, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}

// CaseNotification exported for testing purposes
type CaseNotification struct {
	DB databases.CaseNotificationDatabase
}

// ListNotificationsHandler returns the caller's notifications newest first,
// along with the unread count for the badge
func (c CaseNotification) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	limit64 := int64(limit)
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"notification.user.username": user.Username}
	if unreadOnly {
		filter["notification.read"] = false
	}

	opts := options.Find().
		SetLimit(limit64).
		SetSort(bson.M{"notification.createdAt": -1})

	dbResp, err := c.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get notifications", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.CaseNotification{}
	}

	unreadCount, err := c.DB.CountDocuments(ctx, bson.M{
		"notification.user.username": user.Username,
		"notification.read":          false,
	})
	if err != nil {
		config.ErrorStatus("failed to count unread notifications", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"items":       dbResp,
		"unreadCount": unreadCount,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkAllReadHandler marks every unread notification belonging to the caller
// as read, stamping readAt. The client calls this on panel open; there is no
// per-item read endpoint.
func (c CaseNotification) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())
	res, err := c.DB.UpdateMany(ctx,
		bson.M{
			"notification.user.username": user.Username,
			"notification.read":          false,
		},
		bson.M{
			"$set": bson.M{
				"notification.read":   true,
				"notification.readAt": now,
			},
		},
	)
	if err != nil {
		config.ErrorStatus("failed to mark notifications read", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "All notifications marked read",
		"modified": res.ModifiedCount,
	})
}
