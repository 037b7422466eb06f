package exportjob

import (
	"context"
	"encoding/json"

	job "github.com/goliatone/go-job"
	exportcmd "github.com/goliatone/go-visual-export/command"
	"github.com/goliatone/go-visual-export/export"
)

const (
	DefaultSnapshotTaskID   = "export:snapshot"
	DefaultSnapshotTaskPath = "export:snapshot"
)

// Payload captures the job execution input.
type Payload struct {
	Requests []exportcmd.SnapshotRequest `json:"requests,omitempty"`
	From     string                      `json:"from,omitempty"`
}

// SnapshotRunner runs one snapshot; *command.SnapshotCommand satisfies it.
type SnapshotRunner interface {
	Run(ctx context.Context, from string) ([]export.ExportResult, error)
}

// MessageBuilderFunc builds an execution message for non-queue paths.
type MessageBuilderFunc func(ctx context.Context) (*job.ExecutionMessage, error)

// TaskConfig configures the snapshot task.
type TaskConfig struct {
	ID             string
	Path           string
	Config         job.Config
	HandlerOptions job.HandlerOptions
	Service        export.Service
	Logger         export.Logger
	MessageBuilder MessageBuilderFunc
	// NewRunner builds the runner for one execution. Defaults to a
	// command.SnapshotCommand over Service with the payload requests.
	NewRunner func(payload Payload) SnapshotRunner
}

// SnapshotTask runs scheduled snapshot exports. Failures are reported once
// and never retried.
type SnapshotTask struct {
	id             string
	path           string
	config         job.Config
	handlerOptions job.HandlerOptions
	logger         export.Logger
	messageBuilder MessageBuilderFunc
	newRunner      func(payload Payload) SnapshotRunner
}

// NewSnapshotTask creates a new snapshot task.
func NewSnapshotTask(cfg TaskConfig) *SnapshotTask {
	logger := cfg.Logger
	if logger == nil {
		logger = export.NopLogger{}
	}
	id := cfg.ID
	if id == "" {
		id = DefaultSnapshotTaskID
	}
	path := cfg.Path
	if path == "" {
		path = DefaultSnapshotTaskPath
	}
	newRunner := cfg.NewRunner
	if newRunner == nil {
		svc := cfg.Service
		newRunner = func(payload Payload) SnapshotRunner {
			var loader exportcmd.SnapshotLoader
			if len(payload.Requests) > 0 {
				requests := append([]exportcmd.SnapshotRequest(nil), payload.Requests...)
				loader = func(context.Context) ([]exportcmd.SnapshotRequest, error) {
					return requests, nil
				}
			}
			return exportcmd.NewSnapshotCommand(svc, loader)
		}
	}

	return &SnapshotTask{
		id:             id,
		path:           path,
		config:         cfg.Config,
		handlerOptions: cfg.HandlerOptions,
		logger:         logger,
		messageBuilder: cfg.MessageBuilder,
		newRunner:      newRunner,
	}
}

// GetID returns the task identifier.
func (t *SnapshotTask) GetID() string { return t.id }

// GetHandler returns a handler for non-queue execution paths. Without a
// message builder it runs the default snapshot.
func (t *SnapshotTask) GetHandler() func() error {
	return func() error {
		if t == nil {
			return export.NewError(export.KindInternal, "task is nil", nil)
		}
		ctx := context.Background()
		if t.messageBuilder == nil {
			return t.run(ctx, Payload{})
		}
		msg, err := t.messageBuilder(ctx)
		if err != nil {
			return err
		}
		if msg == nil {
			return export.NewError(export.KindValidation, "execution message is required", nil)
		}
		return t.Execute(ctx, msg)
	}
}

// GetHandlerConfig returns scheduler options for the task.
func (t *SnapshotTask) GetHandlerConfig() job.HandlerOptions { return t.handlerOptions }

// GetConfig returns task config defaults.
func (t *SnapshotTask) GetConfig() job.Config { return t.config }

// GetPath returns the task path.
func (t *SnapshotTask) GetPath() string { return t.path }

// GetEngine returns nil because this task is code-driven.
func (t *SnapshotTask) GetEngine() job.Engine { return nil }

// Execute runs the snapshot described by the message payload.
func (t *SnapshotTask) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	if t == nil {
		return export.NewError(export.KindInternal, "task is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}
	return t.run(ctx, payload)
}

func (t *SnapshotTask) run(ctx context.Context, payload Payload) error {
	results, err := t.newRunner(payload).Run(ctx, payload.From)
	for _, result := range results {
		t.logger.Infof("snapshot saved %s (%d units)", result.Filename, result.Units)
	}
	if err != nil {
		t.logger.Errorf("snapshot failed after %d artifacts: %v", len(results), err)
	}
	return err
}

func encodePayload(payload Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, export.NewError(export.KindValidation, "payload is not serializable", err)
	}
	return json.RawMessage(raw), nil
}

func decodePayload(msg *job.ExecutionMessage) (Payload, error) {
	if msg == nil || msg.Parameters == nil {
		return Payload{}, export.NewError(export.KindValidation, "job payload is required", nil)
	}

	raw, ok := msg.Parameters["payload"]
	if !ok {
		return Payload{}, export.NewError(export.KindValidation, "job payload missing", nil)
	}

	switch value := raw.(type) {
	case Payload:
		return value, nil
	case *Payload:
		if value == nil {
			return Payload{}, export.NewError(export.KindValidation, "job payload is nil", nil)
		}
		return *value, nil
	case json.RawMessage:
		return unmarshalPayload(value)
	case []byte:
		return unmarshalPayload(value)
	case string:
		return unmarshalPayload([]byte(value))
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return Payload{}, export.NewError(export.KindValidation, "job payload is invalid", err)
		}
		return unmarshalPayload(data)
	}
}

func unmarshalPayload(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, export.NewError(export.KindValidation, "job payload is empty", nil)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, export.NewError(export.KindValidation, "job payload is invalid", err)
	}
	return payload, nil
}
