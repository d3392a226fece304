package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/putraaxzy/be-artemis/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBotKeyMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/bot/ping", BotKeyMiddleware("secret-key"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/bot/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/bot/ping", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/bot/ping", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBotKeyMiddlewareUnconfigured(t *testing.T) {
	router := gin.New()
	router.GET("/bot/ping", BotKeyMiddleware(""), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/bot/ping", nil)
	req.Header.Set("X-API-Key", "anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRespondErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apperr.Validation("bad input"), http.StatusBadRequest},
		{apperr.Unauthorized("who are you"), http.StatusUnauthorized},
		{apperr.Forbidden("not yours"), http.StatusForbidden},
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Conflict("already done"), http.StatusConflict},
		{apperr.NoMatchingStudents("empty set"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		router := gin.New()
		router.GET("/", func(c *gin.Context) { respondError(c, tc.err) })

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}
