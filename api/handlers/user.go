package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

// RegisterHandler creates a resident account. Admin accounts are provisioned
// directly in the database, never through this endpoint.
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Username == "" || req.Password == "" || req.Name == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w,
			fmt.Errorf("username, password and name are required"))
		return
	}
	if len(req.Password) < 8 {
		config.ErrorStatus("password too short", http.StatusBadRequest, w,
			fmt.Errorf("password must be at least 8 characters"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := u.DB.FindOne(ctx, bson.M{"user.username": req.Username})
	if err == nil {
		config.ErrorStatus("username already taken", http.StatusBadRequest, w,
			fmt.Errorf("username %q already exists", req.Username))
		return
	}
	if err != mongo.ErrNoDocuments {
		config.ErrorStatus("failed to check username", http.StatusInternalServerError, w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	user := models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Username:  req.Username,
			Password:  string(hash),
			Name:      req.Name,
			Email:     req.Email,
			Address:   req.Address,
			Contact:   req.Contact,
			Role:      models.RoleResident,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	_, err = u.DB.InsertOne(ctx, user)
	if err != nil {
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// MeHandler returns the caller's own profile
func (u User) MeHandler(w http.ResponseWriter, r *http.Request) {
	authUser, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := u.DB.FindOne(ctx, bson.M{"user.username": authUser.Username})
	if err != nil {
		config.ErrorStatus("failed to get user", http.StatusNotFound, w, err)
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

type updateProfileRequest struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// UpdateMeHandler lets the caller update their own contact details. Username,
// password and role are not editable here.
func (u User) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	authUser, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"user.updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.Name != "" {
		set["user.name"] = req.Name
	}
	if req.Email != "" {
		set["user.email"] = req.Email
	}
	if req.Address != "" {
		set["user.address"] = req.Address
	}
	if req.Contact != "" {
		set["user.contact"] = req.Contact
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := u.DB.UpdateOne(ctx, bson.M{"user.username": authUser.Username}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}

	dbResp, err := u.DB.FindOne(ctx, bson.M{"user.username": authUser.Username})
	if err != nil {
		config.ErrorStatus("failed to read back updated user", http.StatusInternalServerError, w, err)
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
