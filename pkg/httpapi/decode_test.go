package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/pkg/constants"
)

type loginDTO struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

func TestDecodeJSONAndForm(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@b.co","password":"secret123"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	var fromJSON loginDTO
	require.NoError(t, Decode(r, &fromJSON))
	assert.Equal(t, "a@b.co", fromJSON.Email)

	form := url.Values{"email": {"c@d.co"}, "password": {"secret123"}}
	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var fromForm loginDTO
	require.NoError(t, Decode(r, &fromForm))
	assert.Equal(t, "c@d.co", fromForm.Email)
}

func TestFieldErrors(t *testing.T) {
	t.Parallel()

	err := constants.Validate.Struct(&loginDTO{Email: "nope", Password: "short"})
	require.Error(t, err)
	fields := FieldErrors(err)
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
	assert.Nil(t, FieldErrors(assert.AnError))
}

func TestWriteValidation(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, WriteValidation(w, map[string]string{"title": "this field is required"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"code":"VALIDATION_FAILED","message":"the given data was invalid","fields":{"title":"this field is required"}}`, w.Body.String())
}
