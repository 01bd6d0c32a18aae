package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"messmate/logger"
	"messmate/models"
	"messmate/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct {
	actors map[string]services.Actor
	err    error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (services.Actor, error) {
	if s.err != nil {
		return services.Actor{}, s.err
	}
	actor, ok := s.actors[token]
	if !ok {
		return services.Actor{}, services.Unauthorized("Invalid token")
	}
	return actor, nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newAuthEngine(auth TokenAuthenticator) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		actor := Actor(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.UserID.Hex(), "role": actor.Role, "token": Token(c)})
	})
	r.GET("/admin", AuthMiddleware(auth), AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	student, err := services.NewActor("64b7f0c2a1b2c3d4e5f60718", models.RoleStudent)
	require.NoError(t, err)
	r := newAuthEngine(stubAuthenticator{actors: map[string]services.Actor{"good": student}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w)["message"])

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, student.UserID.Hex(), body["id"])
	assert.Equal(t, models.RoleStudent, body["role"])
	assert.Equal(t, "good", body["token"])

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthMiddlewareStoreFailure(t *testing.T) {
	r := newAuthEngine(stubAuthenticator{err: services.Internal("Failed to check token", context.DeadlineExceeded)})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	w := hit("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)

	assert.Equal(t, 2, rl.Size())
	now = now.Add(time.Hour)
	assert.Equal(t, 2, rl.Cleanup(time.Minute))
	assert.Zero(t, rl.Size())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/api/messes", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/messes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/messes", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMasksPanicOutsideDevelopment(t *testing.T) {
	for _, dev := range []bool{false, true} {
		r := gin.New()
		r.Use(Recovery(logger.Discard(), dev), RequestLogger(logger.Discard()))
		r.GET("/boom", func(*gin.Context) { panic("kaboom") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

		body := decode(t, w)
		if dev {
			assert.Equal(t, "kaboom", body["error"])
		} else {
			assert.NotContains(t, body, "error")
		}
	}
}

func TestRecoveryLogsPanic(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(logger.NewWithWriter(&buf, "info", "json"), false))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic while handling request")
	assert.Contains(t, buf.String(), "kaboom")
}
