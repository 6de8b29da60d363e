package exports

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/media-rota/backend/pkg/storage"
)

func exportRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/schedules/:id/exports", h.Request)
	r.GET("/schedules/:id/exports/:jobId", h.Download)
	return r
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHandler_NotConfigured(t *testing.T) {
	r := exportRouter(NewHandler(nil, zap.NewNop()))
	id := uuid.NewString()

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/schedules/"+id+"/exports").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/schedules/"+id+"/exports/"+uuid.NewString()).Code)
}

func TestHandler_RequestThenDownload(t *testing.T) {
	scheduleID := uuid.New()
	store := &memoryStore{objects: map[string][]byte{}}
	svc := NewService(stubSchedules{known: scheduleID}, &recordingQueue{}, store)
	r := exportRouter(NewHandler(svc, zap.NewNop()))

	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/schedules/"+scheduleID.String()+"/exports").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/schedules/"+uuid.NewString()+"/exports").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/schedules/nope/exports").Code)

	jobID := uuid.New()
	path := "/schedules/" + scheduleID.String() + "/exports/" + jobID.String()
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, path).Code)

	store.objects[storage.ExportKey(scheduleID.String(), jobID.String())] = []byte("xlsx")
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, path).Code)
}
