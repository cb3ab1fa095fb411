package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

const documentRequestsPerPage = 10

// documentFees maps document types to their fee in centavos
var documentFees = map[string]int64{
	"barangay-clearance": 5000,
	"business-permit":    50000,
	"indigency":          0,
	"residency":          5000,
}

// DocumentRequest exported for testing purposes
type DocumentRequest struct {
	DB databases.DocumentRequestDatabase
}

// DocumentRequestHandler returns a paginated slice of document requests.
// Residents only see their own.
func (d DocumentRequest) DocumentRequestHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["documentRequest.status"] = status
	}
	if !user.IsAdmin() {
		filter["documentRequest.requestedBy"] = user.Username
	}

	page := getPage(Page, r)
	limit64 := int64(documentRequestsPerPage)
	skip64 := int64(page * documentRequestsPerPage)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := d.DB.Find(ctx, filter, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"documentRequest.createdAt": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get document requests", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.DocumentRequest{}
	}

	total, err := d.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count document requests", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"items": dbResp,
		"total": total,
		"page":  page,
		"limit": documentRequestsPerPage,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type documentRequestRequest struct {
	DocumentType string `json:"documentType"`
	Purpose      string `json:"purpose"`
}

// CreateDocumentRequestHandler files a request for a barangay document
func (d DocumentRequest) CreateDocumentRequestHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	var req documentRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	fee, known := documentFees[req.DocumentType]
	if !known {
		config.ErrorStatus("unknown document type", http.StatusBadRequest, w,
			fmt.Errorf("documentType %q is not offered", req.DocumentType))
		return
	}
	if req.Purpose == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w,
			fmt.Errorf("purpose is required"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	status := models.DocumentPending
	var paidAt *primitive.DateTime
	if fee == 0 {
		// free documents skip the payment step entirely
		status = models.DocumentPaid
		paidAt = &now
	}

	request := models.DocumentRequest{
		ID: primitive.NewObjectID(),
		Details: models.DocumentRequestDetails{
			DocumentType: req.DocumentType,
			Purpose:      req.Purpose,
			FeeCents:     fee,
			Status:       status,
			RequestedBy:  user.Username,
			PaidAt:       paidAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := d.DB.InsertOne(ctx, request)
	if err != nil {
		config.ErrorStatus("failed to insert document request", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(request)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CreateCheckoutHandler opens a stripe checkout session for the request fee
// and stores the session id on the request
func (d DocumentRequest) CreateCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
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

	request, err := d.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get document request", http.StatusNotFound, w, err)
		return
	}
	if request.Details.RequestedBy != user.Username {
		config.ErrorStatus("Admin only.", http.StatusForbidden, w,
			fmt.Errorf("user %s cannot pay for this request", user.Username))
		return
	}
	if request.Details.Status != models.DocumentPending {
		config.ErrorStatus("request is not awaiting payment", http.StatusBadRequest, w,
			fmt.Errorf("request is %s", request.Details.Status))
		return
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	baseURL := os.Getenv("BASE_URL")

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("php"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Barangay document: %s", request.Details.DocumentType)),
					},
					UnitAmount: stripe.Int64(request.Details.FeeCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(baseURL + "/documents?payment=success"),
		CancelURL:  stripe.String(baseURL + "/documents?payment=cancelled"),
	}

	s, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	_, err = d.DB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{
		"$set": bson.M{
			"documentRequest.checkoutSessionId": s.ID,
			"documentRequest.updatedAt":         primitive.NewDateTimeFromTime(time.Now()),
		},
	})
	if err != nil {
		config.ErrorStatus("failed to store checkout session", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]string{"sessionId": s.ID, "url": s.URL})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ConfirmPaymentHandler verifies the stored checkout session against stripe
// and marks the request paid. There is no webhook; the client calls this
// after returning from checkout.
func (d DocumentRequest) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	request, err := d.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get document request", http.StatusNotFound, w, err)
		return
	}
	if request.Details.CheckoutSessionID == "" {
		config.ErrorStatus("no checkout session on request", http.StatusBadRequest, w,
			fmt.Errorf("request has no pending checkout session"))
		return
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	s, err := session.Get(request.Details.CheckoutSessionID, nil)
	if err != nil {
		config.ErrorStatus("failed to look up checkout session", http.StatusInternalServerError, w, err)
		return
	}
	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		config.ErrorStatus("payment not completed", http.StatusBadRequest, w,
			fmt.Errorf("checkout session payment status is %s", s.PaymentStatus))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	_, err = d.DB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{
		"$set": bson.M{
			"documentRequest.status":    models.DocumentPaid,
			"documentRequest.paidAt":    now,
			"documentRequest.updatedAt": now,
		},
	})
	if err != nil {
		config.ErrorStatus("failed to mark request paid", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := d.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to read back updated request", http.StatusInternalServerError, w, err)
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

// ReleaseDocumentHandler marks a paid request as released to the resident
func (d DocumentRequest) ReleaseDocumentHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, _ := api.AuthUserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	request, err := d.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get document request", http.StatusNotFound, w, err)
		return
	}
	if request.Details.Status != models.DocumentPaid && request.Details.Status != models.DocumentReady {
		config.ErrorStatus("request is not ready for release", http.StatusBadRequest, w,
			fmt.Errorf("request is %s", request.Details.Status))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	_, err = d.DB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{
		"$set": bson.M{
			"documentRequest.status":     models.DocumentReleased,
			"documentRequest.releasedBy": actor.Username,
			"documentRequest.releasedAt": now,
			"documentRequest.updatedAt":  now,
		},
	})
	if err != nil {
		config.ErrorStatus("failed to release document", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := d.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to read back updated request", http.StatusInternalServerError, w, err)
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
