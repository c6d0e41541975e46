package httperr

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"librarium/util/apperr"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, JSON(e.NewContext(req, rec), err))
	return rec
}

func TestJSON(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.InvalidInput("bad payload"), http.StatusBadRequest},
		{apperr.Unauthorized("nope"), http.StatusUnauthorized},
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Conflict("duplicate"), http.StatusConflict},
		{apperr.InvalidState("cannot do that"), http.StatusConflict},
		{apperr.LimitExceeded("too many"), http.StatusUnprocessableEntity},
		{apperr.New(apperr.KindUnavailable, "upstream down"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := respond(t, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		require.Contains(t, rec.Body.String(), tc.err.Error())
	}
}

func TestJSONUnknownError(t *testing.T) {
	rec := respond(t, errors.New("driver went away"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// raw driver errors never leak to the client
	require.NotContains(t, rec.Body.String(), "driver went away")
}
