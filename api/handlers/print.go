package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/models"
	templates "github.com/barangayportal/barangay-portal-api/templates/html"
)

// CreatePrintTokenHandler mints a short-lived token scoped to one case and
// returns the printable page URLs. Print pages open in a bare browser window
// that cannot attach the bearer header, so access goes through the token.
func (c Case) CreatePrintTokenHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	caseDoc, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, err)
		return
	}
	if !user.IsAdmin() && caseDoc.Details.ReportedBy != user.Username {
		config.ErrorStatus("Admin only.", http.StatusForbidden, w,
			fmt.Errorf("user %s cannot print case %s", user.Username, caseDoc.Details.CaseID))
		return
	}

	token, err := api.NewPrintToken(caseID, user)
	if errors.Is(err, api.ErrNoPrintTokenSecret) {
		config.ErrorStatus("print links require PRINT_TOKEN_SECRET to be configured",
			http.StatusNotImplemented, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to mint print token", http.StatusInternalServerError, w, err)
		return
	}

	base := fmt.Sprintf("/cases/%s", caseID)
	b, err := json.Marshal(map[string]interface{}{
		"token": token,
		"urls": map[string]string{
			"fullReport":         fmt.Sprintf("%s/full-report?token=%s", base, token),
			"patawagPrint":       fmt.Sprintf("%s/patawag-print?token=%s", base, token),
			"cancellationLetter": fmt.Sprintf("%s/cancellation-letter?token=%s", base, token),
		},
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// printableCase resolves and authorizes the case behind a printable page.
// The caller is either an authenticated session or a print token scoped to
// exactly this case.
func (c Case) printableCase(w http.ResponseWriter, r *http.Request) (*models.Case, bool) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return nil, false
	}

	user, authenticated := api.AuthUserFromContext(r.Context())
	if !authenticated {
		token := r.URL.Query().Get("token")
		if token == "" {
			config.ErrorStatus("missing print token", http.StatusUnauthorized, w,
				fmt.Errorf("printable pages require a session or a print token"))
			return nil, false
		}
		tokenCaseID, tokenUser, err := api.ParsePrintToken(token)
		if err != nil {
			config.ErrorStatus("invalid print token", http.StatusUnauthorized, w, err)
			return nil, false
		}
		if tokenCaseID != caseID {
			config.ErrorStatus("print token does not match case", http.StatusForbidden, w,
				fmt.Errorf("token is scoped to a different case"))
			return nil, false
		}
		user = tokenUser
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	caseDoc, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, err)
		return nil, false
	}
	if !user.IsAdmin() && caseDoc.Details.ReportedBy != user.Username {
		config.ErrorStatus("Admin only.", http.StatusForbidden, w,
			fmt.Errorf("user %s cannot print case %s", user.Username, caseDoc.Details.CaseID))
		return nil, false
	}
	return caseDoc, true
}

// FullReportHandler serves the printable full case report as HTML
func (c Case) FullReportHandler(w http.ResponseWriter, r *http.Request) {
	caseDoc, ok := c.printableCase(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, templates.RenderCaseFullReport(*caseDoc))
}

// PatawagPrintHandler serves the printable summons for the most recent
// patawag form on the case
func (c Case) PatawagPrintHandler(w http.ResponseWriter, r *http.Request) {
	caseDoc, ok := c.printableCase(w, r)
	if !ok {
		return
	}
	forms := caseDoc.Details.PatawagForms
	if len(forms) == 0 {
		config.ErrorStatus("no patawag form on case", http.StatusNotFound, w,
			fmt.Errorf("case %s has no patawag forms", caseDoc.Details.CaseID))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, templates.RenderPatawagForm(*caseDoc, forms[len(forms)-1]))
}

// CancellationLetterHandler serves the printable cancellation notice; only a
// cancelled case has one
func (c Case) CancellationLetterHandler(w http.ResponseWriter, r *http.Request) {
	caseDoc, ok := c.printableCase(w, r)
	if !ok {
		return
	}
	if caseDoc.Details.Status != models.StatusCancelled {
		config.ErrorStatus("case is not cancelled", http.StatusBadRequest, w,
			fmt.Errorf("case %s is %s, cancellation letters exist only for cancelled cases",
				caseDoc.Details.CaseID, caseDoc.Details.Status))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, templates.RenderCancellationLetter(*caseDoc))
}
