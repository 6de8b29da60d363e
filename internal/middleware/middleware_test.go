package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKey(t *testing.T) {
	r := gin.New()
	r.Use(APIKey("X-API-Key", "s3cret"))
	r.GET("/roles", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "nope", http.StatusUnauthorized},
		{"prefix of key", "s3c", http.StatusUnauthorized},
		{"correct", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.key != "" {
				h.Set("X-API-Key", tt.key)
			}
			w := serve(r, http.MethodGet, "/roles", h)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:3000", "X-API-Key"))
	r.GET("/roles", func(c *gin.Context) { c.Status(http.StatusOK) })

	h := http.Header{}
	h.Set("Origin", "http://localhost:3000")
	w := serve(r, http.MethodOptions, "/roles", h)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
	assert.Equal(t, HeaderRequestID, w.Header().Get("Access-Control-Expose-Headers"))

	h.Set("Origin", "http://evil.example")
	w = serve(r, http.MethodGet, "/roles", h)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func TestInvalidateOnWrite(t *testing.T) {
	inv := &countingInvalidator{}
	r := gin.New()
	r.Use(InvalidateOnWrite(inv, zap.NewNop()))
	r.GET("/events/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PATCH("/events/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/events/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/events", func(c *gin.Context) { c.Status(http.StatusConflict) })

	serve(r, http.MethodGet, "/events/1", nil)
	assert.Equal(t, 0, inv.calls)

	serve(r, http.MethodPost, "/events", nil)
	assert.Equal(t, 0, inv.calls, "failed writes keep the cache")

	serve(r, http.MethodPatch, "/events/1", nil)
	serve(r, http.MethodDelete, "/events/1", nil)
	assert.Equal(t, 2, inv.calls)
}

func TestInvalidateOnWrite_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	inv := &countingInvalidator{err: errors.New("redis down")}
	r := gin.New()
	r.Use(InvalidateOnWrite(inv, zap.New(core)))
	r.POST("/roles", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := serve(r, http.MethodPost, "/roles", nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "cache invalidation failed", logs.All()[0].Message)
}

func TestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, http.MethodGet, "/ok", nil)
	serve(r, http.MethodGet, "/missing", nil)
	w := serve(r, http.MethodGet, "/boom", nil)

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, zapcore.InfoLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[2].Level)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}
