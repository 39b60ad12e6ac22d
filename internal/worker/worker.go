package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/webinar-service/pkg/queue"
)

// PreviewDeleter removes stored preview files.
type PreviewDeleter interface {
	Delete(ctx context.Context, filename string) error
}

// PreviewReferences reports whether a webinar still points at a preview file.
type PreviewReferences interface {
	PreviewInUse(ctx context.Context, filename string) (bool, error)
}

// JobSource is the queue side the cleaner consumes.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// PreviewCleaner deletes preview files left behind by rolled back webinar writes.
type PreviewCleaner struct {
	previews PreviewDeleter
	refs     PreviewReferences
	queue    JobSource
	backoff  time.Duration
	logger   *zap.Logger
}

// NewPreviewCleaner creates a preview cleanup processor.
func NewPreviewCleaner(previews PreviewDeleter, refs PreviewReferences, q JobSource, logger *zap.Logger) *PreviewCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewCleaner{previews: previews, refs: refs, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one preview cleanup job. A preview still referenced by a webinar is left alone.
func (p *PreviewCleaner) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypePreviewCleanup {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.PreviewCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Filename == "" {
		p.logger.Warn("preview cleanup job without filename", zap.String("job_id", job.ID))
		return nil
	}

	inUse, err := p.refs.PreviewInUse(ctx, payload.Filename)
	if err != nil {
		return fmt.Errorf("check preview references: %w", err)
	}
	if inUse {
		p.logger.Info("preview still referenced, skipping cleanup", zap.String("filename", payload.Filename))
		return nil
	}

	if err := p.previews.Delete(ctx, payload.Filename); err != nil {
		return fmt.Errorf("delete preview: %w", err)
	}
	p.logger.Info("orphaned preview removed",
		zap.String("filename", payload.Filename),
		zap.String("reason", payload.Reason),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *PreviewCleaner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("preview cleanup worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, p.backoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			sleep(ctx, p.backoff)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
