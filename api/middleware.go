package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

// MiddlewareDB is a struct that holds the database
type MiddlewareDB struct {
	DB databases.UserDatabase
}

// AuthUser is the authenticated identity carried in the request context.
// Every role decision in the portal goes through this single claims object.
type AuthUser struct {
	Username string
	Name     string
	Role     string
}

// IsAdmin reports whether the identity carries the admin role
func (u AuthUser) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

type contextKey string

const authUserKey contextKey = "authUser"

var authenticator auth.Authenticator
var cache store.Cache

// Middleware authenticates the request and stores the caller's identity in
// the request context for the handlers and the role authorizer
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())

		authUser := AuthUser{Username: user.UserName()}
		if ext := user.Extensions(); ext != nil {
			if v := ext["role"]; len(v) > 0 {
				authUser.Role = v[0]
			}
			if v := ext["name"]; len(v) > 0 {
				authUser.Name = v[0]
			}
		}
		next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), authUser)))
	})
}

// RequireAdmin is the single role authorizer: it rejects any caller whose
// claims do not carry the admin role. Wrap it inside Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := AuthUserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			zap.S().Warnw("admin route denied",
				"url", r.URL,
				"user", user.Username,
				"role", user.Role,
			)
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "Admin only."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithAuthUser returns a context carrying the authenticated identity
func WithAuthUser(ctx context.Context, user AuthUser) context.Context {
	return context.WithValue(ctx, authUserKey, user)
}

// AuthUserFromContext extracts the authenticated identity placed by Middleware
func AuthUserFromContext(ctx context.Context) (AuthUser, bool) {
	user, ok := ctx.Value(authUserKey).(AuthUser)
	return user, ok
}

// CreateToken returns a bearer token for valid basic credentials
func (m MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	username, _, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "basic auth failed", http.StatusUnauthorized)
		return
	}

	dbResp, err := m.DB.FindOne(r.Context(), bson.M{"user.username": username})
	if err != nil {
		http.Error(w, "failed to get user by username", http.StatusUnauthorized)
		return
	}

	token := uuid.New().String()
	authUser := auth.NewDefaultUser(username, dbResp.ID.Hex(), nil, userExtensions(dbResp.Details))
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, authUser, r)

	response := map[string]string{
		"token": token,
		"_id":   dbResp.ID.Hex(),
		"role":  dbResp.Details.Role,
	}

	responseBody, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareDB) SetupGoGuardian() {
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), time.Hour*24)
	basicStrategy := basic.New(m.ValidateUser, cache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, cache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser validates a username/password pair against the users collection
func (m MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, username, password string) (auth.Info, error) {
	dbResp, err := m.DB.FindOne(ctx, bson.M{"user.username": username})
	if err != nil {
		return nil, fmt.Errorf("no matching username found")
	}

	err = bcrypt.CompareHashAndPassword([]byte(dbResp.Details.Password), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}

	return auth.NewDefaultUser(username, dbResp.ID.Hex(), nil, userExtensions(dbResp.Details)), nil
}

// RevokeToken revokes a token
func RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken := r.Header.Get("Authorization")
	splitToken := strings.Split(reqToken, "Bearer ")
	if len(splitToken) < 2 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "missing bearer token"}`))
		return
	}
	reqToken = splitToken[1]

	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Revoke(tokenStrategy, reqToken, r)
	body := fmt.Sprintf(`{"revoked token": "%s"}`, reqToken)
	w.Write([]byte(body))
}

func userExtensions(details models.UserDetails) map[string][]string {
	return map[string][]string{
		"role": {details.Role},
		"name": {details.Name},
	}
}
