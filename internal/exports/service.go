package exports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/pkg/queue"
	"github.com/media-rota/backend/pkg/storage"
)

// ScheduleLookup checks that a schedule exists.
type ScheduleLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error)
}

// Enqueuer hands export jobs to the worker.
type Enqueuer interface {
	EnqueueScheduleExport(ctx context.Context, jobID uuid.UUID, payload queue.ScheduleExportPayload) error
}

// ObjectStore answers whether an export was written and signs download links.
type ObjectStore interface {
	ExportExists(ctx context.Context, key string) (bool, error)
	ExportDownloadURL(ctx context.Context, key string) (string, error)
	PresignExpire() time.Duration
}

// Ticket identifies a requested export.
type Ticket struct {
	JobID      uuid.UUID `json:"job_id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	ObjectKey  string    `json:"object_key"`
	Status     string    `json:"status"`
}

// Download is a signed link to a finished export.
type Download struct {
	JobID     uuid.UUID `json:"job_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service requests exports and resolves finished ones.
type Service struct {
	schedules ScheduleLookup
	queue     Enqueuer
	store     ObjectStore
	now       func() time.Time
}

// NewService creates an export service.
func NewService(schedules ScheduleLookup, q Enqueuer, store ObjectStore) *Service {
	return &Service{schedules: schedules, queue: q, store: store, now: time.Now}
}

// Request queues an export of scheduleID.
func (s *Service) Request(ctx context.Context, scheduleID uuid.UUID) (*Ticket, error) {
	if _, err := s.schedules.GetByID(ctx, scheduleID); err != nil {
		return nil, err
	}
	jobID := uuid.New()
	key := storage.ExportKey(scheduleID.String(), jobID.String())
	payload := queue.ScheduleExportPayload{ScheduleID: scheduleID, ObjectKey: key}
	if err := s.queue.EnqueueScheduleExport(ctx, jobID, payload); err != nil {
		return nil, fmt.Errorf("enqueue export: %w", err)
	}
	return &Ticket{JobID: jobID, ScheduleID: scheduleID, ObjectKey: key, Status: "queued"}, nil
}

// Download returns a signed URL once the worker has uploaded the export, NotFound before.
func (s *Service) Download(ctx context.Context, scheduleID, jobID uuid.UUID) (*Download, error) {
	key := storage.ExportKey(scheduleID.String(), jobID.String())
	ok, err := s.store.ExportExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("export")
	}
	url, err := s.store.ExportDownloadURL(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Download{JobID: jobID, URL: url, ExpiresAt: s.now().UTC().Add(s.store.PresignExpire())}, nil
}
