package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"messmate/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err     error
		status  int
		message string
		detail  string
	}{
		{services.InvalidInput("bad"), http.StatusBadRequest, "bad", ""},
		{services.Unauthorized("who"), http.StatusUnauthorized, "who", ""},
		{services.Forbidden("no"), http.StatusForbidden, "no", ""},
		{services.NotFound("gone"), http.StatusNotFound, "gone", ""},
		{services.Conflict("again", errors.New("dup")), http.StatusConflict, "again", "dup"},
		{services.Internal("oops", errors.New("db down")), http.StatusInternalServerError, "oops", "db down"},
		{errors.New("raw"), http.StatusInternalServerError, "Something went wrong", "raw"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, tc.message, body["message"])
		if tc.detail == "" {
			assert.NotContains(t, body, "error")
		} else {
			assert.Equal(t, tc.detail, body["error"])
		}
	}
}
