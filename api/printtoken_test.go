package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/models"
)

func TestPrintTokenRoundTrip(t *testing.T) {
	t.Setenv("PRINT_TOKEN_SECRET", "unit-test-secret")

	user := api.AuthUser{Username: "maria", Role: models.RoleResident}
	token, err := api.NewPrintToken("64f0c2a9e1b2c3d4e5f60718", user)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	caseID, parsedUser, err := api.ParsePrintToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "64f0c2a9e1b2c3d4e5f60718", caseID)
	assert.Equal(t, "maria", parsedUser.Username)
	assert.Equal(t, models.RoleResident, parsedUser.Role)
}

func TestPrintTokens_RequireSecret(t *testing.T) {
	t.Setenv("PRINT_TOKEN_SECRET", "unit-test-secret")
	token, err := api.NewPrintToken("64f0c2a9e1b2c3d4e5f60718", api.AuthUser{Username: "maria"})
	assert.NoError(t, err)

	// with no secret configured, tokens are neither minted nor accepted
	t.Setenv("PRINT_TOKEN_SECRET", "")

	_, err = api.NewPrintToken("64f0c2a9e1b2c3d4e5f60718", api.AuthUser{Username: "maria"})
	assert.ErrorIs(t, err, api.ErrNoPrintTokenSecret)

	_, _, err = api.ParsePrintToken(token)
	assert.Error(t, err)
}

func TestParsePrintToken_RejectsTampering(t *testing.T) {
	t.Setenv("PRINT_TOKEN_SECRET", "unit-test-secret")

	token, err := api.NewPrintToken("64f0c2a9e1b2c3d4e5f60718", api.AuthUser{Username: "maria"})
	assert.NoError(t, err)

	_, _, err = api.ParsePrintToken(token + "x")
	assert.Error(t, err)

	t.Setenv("PRINT_TOKEN_SECRET", "a-different-secret")
	_, _, err = api.ParsePrintToken(token)
	assert.Error(t, err)
}
