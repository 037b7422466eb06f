package exportjob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	job "github.com/goliatone/go-job"
	exportcmd "github.com/goliatone/go-visual-export/command"
	"github.com/goliatone/go-visual-export/export"
)

// Enqueuer delivers execution messages to go-job.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *job.ExecutionMessage) error
}

// EnqueuerFunc adapts a function to an Enqueuer.
type EnqueuerFunc func(ctx context.Context, msg *job.ExecutionMessage) error

func (f EnqueuerFunc) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if f == nil {
		return export.NewError(export.KindInternal, "enqueuer is nil", nil)
	}
	return f(ctx, msg)
}

// Config configures the go-job snapshot scheduler.
type Config struct {
	Enqueuer Enqueuer
	TaskID   string
	TaskPath string
	Logger   export.Logger
}

// Scheduler enqueues snapshot jobs. Identical pending snapshots are merged
// by go-job through the idempotency key.
type Scheduler struct {
	enqueuer Enqueuer
	taskID   string
	taskPath string
	logger   export.Logger
}

// NewScheduler creates a new job scheduler adapter.
func NewScheduler(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = export.NopLogger{}
	}
	taskID := cfg.TaskID
	if taskID == "" {
		taskID = DefaultSnapshotTaskID
	}
	taskPath := cfg.TaskPath
	if taskPath == "" {
		taskPath = DefaultSnapshotTaskPath
	}
	return &Scheduler{
		enqueuer: cfg.Enqueuer,
		taskID:   taskID,
		taskPath: taskPath,
		logger:   logger,
	}
}

// RequestSnapshot enqueues one snapshot run.
func (s *Scheduler) RequestSnapshot(ctx context.Context, requests []exportcmd.SnapshotRequest) error {
	if s == nil || s.enqueuer == nil {
		return export.NewError(export.KindNotImpl, "job enqueuer not configured", nil)
	}
	msg, err := s.BuildMessage(requests)
	if err != nil {
		return err
	}
	if err := s.enqueuer.Enqueue(ctx, msg); err != nil {
		s.logger.Errorf("snapshot enqueue failed: %v", err)
		return err
	}
	s.logger.Debugf("snapshot enqueued (%d artifacts)", len(requests))
	return nil
}

// BuildMessage encodes requests into an execution message for the task.
func (s *Scheduler) BuildMessage(requests []exportcmd.SnapshotRequest) (*job.ExecutionMessage, error) {
	for _, req := range requests {
		if err := export.ValidateFormat(export.NormalizeFormat(req.Format)); err != nil {
			return nil, err
		}
	}
	encoded, err := encodePayload(Payload{Requests: requests})
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(encoded)
	return &job.ExecutionMessage{
		JobID:          s.taskID,
		ScriptPath:     s.taskPath,
		Parameters:     map[string]any{"payload": encoded},
		IdempotencyKey: hex.EncodeToString(sum[:]),
		DedupPolicy:    job.DedupPolicyMerge,
	}, nil
}
