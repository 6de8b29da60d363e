package exports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/projection"
	"github.com/media-rota/backend/pkg/queue"
	"github.com/media-rota/backend/pkg/storage"
)

func strp(s string) *string { return &s }

func sampleGrid() projection.GridView {
	camera, sound := uuid.New(), uuid.New()
	start := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	return projection.GridView{
		ID: uuid.New(), Month: 3, Year: 2025,
		Events: []projection.GridEventView{{
			EventView: projection.EventView{
				ID: uuid.New(), Title: "Sunday Service", EventTypeName: "Service",
				StartsAt: start, EndsAt: start.Add(2 * time.Hour),
				Assignments: []projection.AssignmentView{
					{RoleID: sound, RoleName: "Sound", RoleOrder: 2, RoleCode: "sound", IsApplicable: false},
					{RoleID: camera, RoleName: "Camera", RoleOrder: 1, RoleCode: "camera", IsApplicable: true,
						UserFirstName: strp("Grace"), UserLastName: strp("Hopper")},
				},
			},
			UnavailableUsers: []projection.UnavailableUserView{{FirstName: "Ada", LastName: "Lovelace"}},
		}},
	}
}

func TestRender_OneRowPerEvent(t *testing.T) {
	buf, err := Render(sampleGrid())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "Start", "End", "Event", "Type", "Camera", "Sound", "Unavailable"}, rows[0])
	assert.Equal(t, []string{"2025-03-02", "09:00", "11:00", "Sunday Service", "Service", "Grace Hopper", "n/a", "Ada Lovelace"}, rows[1])
}

func TestRender_EmptyGrid(t *testing.T) {
	buf, err := Render(projection.GridView{Events: []projection.GridEventView{}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Unavailable", rows[0][len(rows[0])-1])
}

type stubSchedules struct{ known uuid.UUID }

func (s stubSchedules) GetByID(_ context.Context, id uuid.UUID) (*models.Schedule, error) {
	if id != s.known {
		return nil, apperr.NotFound("schedule")
	}
	return &models.Schedule{ID: id}, nil
}

type recordingQueue struct {
	jobID   uuid.UUID
	payload queue.ScheduleExportPayload
	calls   int
}

func (q *recordingQueue) EnqueueScheduleExport(_ context.Context, jobID uuid.UUID, p queue.ScheduleExportPayload) error {
	q.calls++
	q.jobID, q.payload = jobID, p
	return nil
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) ExportExists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryStore) ExportDownloadURL(_ context.Context, key string) (string, error) {
	return "https://example.test/" + key, nil
}

func (m *memoryStore) PresignExpire() time.Duration { return 15 * time.Minute }

func (m *memoryStore) UploadExport(_ context.Context, key string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func TestService_RequestAndDownload(t *testing.T) {
	scheduleID := uuid.New()
	q := &recordingQueue{}
	store := &memoryStore{objects: map[string][]byte{}}
	svc := NewService(stubSchedules{known: scheduleID}, q, store)

	ticket, err := svc.Request(context.Background(), scheduleID)
	require.NoError(t, err)
	assert.Equal(t, 1, q.calls)
	assert.Equal(t, ticket.JobID, q.jobID)
	assert.Equal(t, storage.ExportKey(scheduleID.String(), ticket.JobID.String()), q.payload.ObjectKey)

	_, err = svc.Download(context.Background(), scheduleID, ticket.JobID)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "not uploaded yet")

	store.objects[ticket.ObjectKey] = []byte("xlsx")
	dl, err := svc.Download(context.Background(), scheduleID, ticket.JobID)
	require.NoError(t, err)
	assert.Contains(t, dl.URL, ticket.ObjectKey)
}

func TestService_RequestUnknownSchedule(t *testing.T) {
	q := &recordingQueue{}
	svc := NewService(stubSchedules{known: uuid.New()}, q, &memoryStore{})

	_, err := svc.Request(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, q.calls)
}

type stubGrid struct {
	view projection.GridView
	err  error
}

func (s stubGrid) Build(context.Context, uuid.UUID) (projection.GridView, error) {
	return s.view, s.err
}

func exportJob(t *testing.T, scheduleID uuid.UUID, key string) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(uuid.NewString(), queue.JobTypeScheduleExport, queue.ScheduleExportPayload{ScheduleID: scheduleID, ObjectKey: key})
	require.NoError(t, err)
	return job
}

func TestProcessor_UploadsSpreadsheet(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	p := NewProcessor(stubGrid{view: sampleGrid()}, store, nil, nil)

	require.NoError(t, p.Process(context.Background(), exportJob(t, uuid.New(), "exports/a/b.xlsx")))

	raw, ok := store.objects["exports/a/b.xlsx"]
	require.True(t, ok)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestProcessor_DeletedScheduleIsDropped(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	p := NewProcessor(stubGrid{err: apperr.NotFound("schedule")}, store, nil, nil)

	require.NoError(t, p.Process(context.Background(), exportJob(t, uuid.New(), "exports/a/c.xlsx")))
	assert.Empty(t, store.objects)
}

func TestProcessor_StoreErrorIsRetryable(t *testing.T) {
	p := NewProcessor(stubGrid{err: errors.New("connection reset")}, &memoryStore{objects: map[string][]byte{}}, nil, nil)

	err := p.Process(context.Background(), exportJob(t, uuid.New(), "exports/a/d.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build grid")
}

// scriptedJobs hands out jobs in order, then cancels the worker context.
type scriptedJobs struct {
	jobs    []*queue.Job
	cancel  context.CancelFunc
	retried []string
}

func (s *scriptedJobs) Dequeue(ctx context.Context) (*queue.Job, error) {
	if len(s.jobs) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	job := s.jobs[0]
	s.jobs = s.jobs[1:]
	return job, nil
}

func (s *scriptedJobs) Retry(_ context.Context, job *queue.Job) error {
	s.retried = append(s.retried, job.ID)
	return nil
}

func TestProcessor_RunDropsUndeliverableJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	other := &queue.Job{ID: "email-1", Type: "email", Payload: []byte(`{}`)}
	malformed := &queue.Job{ID: "bad-1", Type: queue.JobTypeScheduleExport, Payload: []byte(`{"schedule_id": 7}`)}
	failing := exportJob(t, uuid.New(), "exports/a/e.xlsx")
	jobs := &scriptedJobs{jobs: []*queue.Job{other, malformed, failing}, cancel: cancel}

	core, logs := observer.New(zap.WarnLevel)
	p := NewProcessor(stubGrid{err: errors.New("connection reset")}, &memoryStore{objects: map[string][]byte{}}, jobs, zap.New(core))
	p.backoff = 0
	p.Run(ctx)

	assert.Equal(t, []string{failing.ID}, jobs.retried)
	assert.Equal(t, 2, logs.FilterMessage("export job dropped").Len())
}

func TestProcessor_OtherJobTypeIsDropped(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	p := NewProcessor(stubGrid{view: sampleGrid()}, store, nil, nil)

	job := &queue.Job{ID: "email-2", Type: "email", Payload: []byte(`{"to": "a@b.c"}`)}
	require.NoError(t, p.Process(context.Background(), job))
	assert.Empty(t, store.objects)
}
