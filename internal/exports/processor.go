package exports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/projection"
	"github.com/media-rota/backend/pkg/queue"
)

// GridBuilder builds a schedule grid straight from the store.
type GridBuilder interface {
	Build(ctx context.Context, scheduleID uuid.UUID) (projection.GridView, error)
}

// Uploader writes a finished export.
type Uploader interface {
	UploadExport(ctx context.Context, key string, body io.Reader, contentLength int64) error
}

// JobSource yields export jobs and takes back failed ones.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Processor processes schedule export jobs: build grid, render spreadsheet, upload to S3.
type Processor struct {
	grid    GridBuilder
	store   Uploader
	jobs    JobSource
	backoff time.Duration
	logger  *zap.Logger
}

// NewProcessor creates a schedule export processor.
func NewProcessor(grid GridBuilder, store Uploader, jobs JobSource, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{grid: grid, store: store, jobs: jobs, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one export job. Jobs that can never succeed are dropped without retry:
// another job type, a malformed payload, or a schedule deleted after the request.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.ScheduleExportPayload
	if err := job.Decode(queue.JobTypeScheduleExport, &payload); err != nil {
		if errors.Is(err, queue.ErrUnknownJobType) || errors.Is(err, queue.ErrMalformedPayload) {
			p.logger.Warn("export job dropped",
				zap.String("job_id", job.ID),
				zap.String("type", string(job.Type)),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	grid, err := p.grid.Build(ctx, payload.ScheduleID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			p.logger.Warn("export skipped, schedule gone",
				zap.String("job_id", job.ID),
				zap.String("schedule_id", payload.ScheduleID.String()),
			)
			return nil
		}
		return fmt.Errorf("build grid: %w", err)
	}

	buf, err := Render(grid)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	size := int64(buf.Len())
	if err := p.store.UploadExport(ctx, payload.ObjectKey, buf, size); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	p.logger.Info("schedule export completed",
		zap.String("job_id", job.ID),
		zap.String("schedule_id", payload.ScheduleID.String()),
		zap.String("s3_key", payload.ObjectKey),
		zap.Int64("bytes", size),
		zap.Int("events", len(grid.Events)),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("export worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *Processor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
