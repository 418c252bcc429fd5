package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chirpnet/api/internal/apperror"
)

func runValidator(t *testing.T, middleware gin.HandlerFunc, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/test", middleware, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequiredAndEmailRules(t *testing.T) {
	mw := Body(
		NewField("email", Required("Email is required"), IsEmail("Email is invalid")),
	)

	rec := runValidator(t, mw, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var payload struct {
		Message string `json:"message"`
		Errors  map[string]struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "Validation error", payload.Message)
	assert.Equal(t, "Email is required", payload.Errors["email"].Msg)

	rec = runValidator(t, mw, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = runValidator(t, mw, map[string]any{"email": "a@x.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFirstFailingRuleWins(t *testing.T) {
	mw := Body(
		NewField("name", Required("required"), LengthBetween(3, 10, "length")),
	)

	rec := runValidator(t, mw, map[string]any{"name": ""})
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	errs := payload["errors"].(map[string]any)
	name := errs["name"].(map[string]any)
	assert.Equal(t, "required", name["msg"])
}

func TestStrongPassword(t *testing.T) {
	mw := Body(NewField("password", StrongPassword("weak")))

	for _, weak := range []string{"short", "alllowercase1!", "ALLUPPER1!", "NoDigits!!", "NoSymbol11"} {
		rec := runValidator(t, mw, map[string]any{"password": weak})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "password %q", weak)
	}

	rec := runValidator(t, mw, map[string]any{"password": "Abcd12!@"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMatchesField(t *testing.T) {
	mw := Body(
		NewField("confirm_password", MatchesField("password", "mismatch")),
	)

	rec := runValidator(t, mw, map[string]any{"password": "Abcd12!@", "confirm_password": "other"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = runValidator(t, mw, map[string]any{"password": "Abcd12!@", "confirm_password": "Abcd12!@"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestISO8601Date(t *testing.T) {
	mw := Body(NewField("date_of_birth", ISO8601Date("bad date")))

	rec := runValidator(t, mw, map[string]any{"date_of_birth": "1990-01-01"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runValidator(t, mw, map[string]any{"date_of_birth": "01/01/1990"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUsernameRule(t *testing.T) {
	mw := Body(NewField("username", Username("bad username")))

	for _, bad := range []string{"ab", "has space", "way_too_long_username", "emoji😀"} {
		rec := runValidator(t, mw, map[string]any{"username": bad})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "username %q", bad)
	}

	rec := runValidator(t, mw, map[string]any{"username": "ann_lee90"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalFieldSkippedWhenAbsent(t *testing.T) {
	mw := Body(OptionalField("bio", LengthBetween(1, 5, "too long")))

	rec := runValidator(t, mw, map[string]any{})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runValidator(t, mw, map[string]any{"bio": "far too long for the rule"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStatusErrorShortCircuits(t *testing.T) {
	mw := Body(
		NewField("token", Custom(func(_ context.Context, _ *gin.Context, value string, _ map[string]any) error {
			return apperror.Unauthorized("Access token is required")
		})),
	)

	rec := runValidator(t, mw, map[string]any{"token": "anything"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "Access token is required", payload["message"])
	assert.NotContains(t, payload, "errors")
}
