package exportactivity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-users/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/goliatone/go-visual-export/export"
	"github.com/google/uuid"
)

// SystemActorID identifies the exporter when events have no human actor.
var SystemActorID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/goliatone/go-visual-export"))

// Config configures the activity emitter adapter.
type Config struct {
	Sink       types.ActivitySink
	Channel    string
	ObjectType string
	ActorID    uuid.UUID
}

// Emitter records export lifecycle events as go-users activity records.
type Emitter struct {
	sink       types.ActivitySink
	channel    string
	objectType string
	actorID    uuid.UUID
}

var _ export.ChangeEmitter = (*Emitter)(nil)

// NewEmitter creates a new activity emitter.
func NewEmitter(cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "visual-export"
	}
	objectType := strings.TrimSpace(cfg.ObjectType)
	if objectType == "" {
		objectType = "export_job"
	}
	actorID := cfg.ActorID
	if actorID == uuid.Nil {
		actorID = SystemActorID
	}
	return &Emitter{
		sink:       cfg.Sink,
		channel:    channel,
		objectType: objectType,
		actorID:    actorID,
	}
}

// Emit stores one lifecycle event in the configured ActivitySink.
func (e *Emitter) Emit(ctx context.Context, evt export.ChangeEvent) error {
	if e == nil {
		return export.NewError(export.KindInternal, "activity emitter is nil", nil)
	}
	if e.sink == nil {
		return export.NewError(export.KindNotImpl, "activity sink not configured", nil)
	}
	verb := strings.TrimSpace(evt.Name)
	if verb == "" {
		return export.NewError(export.KindValidation, "activity verb is required", nil)
	}
	objectID := strings.TrimSpace(evt.JobID)
	if objectID == "" {
		return export.NewError(export.KindValidation, "activity object ID is required", nil)
	}

	record, err := activity.BuildRecordFromUUID(
		e.actorID,
		verb,
		e.objectType,
		objectID,
		buildMetadata(evt),
		activity.WithChannel(e.channel),
		activity.WithOccurredAt(evt.Timestamp),
	)
	if err != nil {
		return err
	}
	return e.sink.Log(ctx, record)
}

func buildMetadata(evt export.ChangeEvent) map[string]any {
	meta := make(map[string]any, len(evt.Metadata)+3)
	if evt.Format != "" {
		meta["format"] = string(evt.Format)
	}
	if evt.Entry != "" {
		meta["entry"] = evt.Entry
	}
	if evt.Region != "" {
		meta["region"] = evt.Region
	}
	for k, v := range evt.Metadata {
		meta[k] = v
	}
	return meta
}

// LogEmitter writes lifecycle events to a logger.
type LogEmitter struct {
	Logger export.Logger
}

var _ export.ChangeEmitter = LogEmitter{}

func (e LogEmitter) Emit(ctx context.Context, evt export.ChangeEvent) error {
	_ = ctx
	logger := e.Logger
	if logger == nil {
		return nil
	}
	var b strings.Builder
	b.WriteString(evt.Name)
	b.WriteString(" job=")
	b.WriteString(evt.JobID)
	if evt.Format != "" {
		b.WriteString(" format=")
		b.WriteString(string(evt.Format))
	}
	if evt.Region != "" {
		b.WriteString(" region=")
		b.WriteString(evt.Region)
	}
	keys := make([]string, 0, len(evt.Metadata))
	for k := range evt.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(stringify(evt.Metadata[k]))
	}

	if evt.Name == "export.failed" || evt.Name == "export.region.skipped" {
		logger.Errorf("%s", b.String())
		return nil
	}
	logger.Infof("%s", b.String())
	return nil
}

// Fanout emits every event to each emitter and joins their errors.
type Fanout []export.ChangeEmitter

func (f Fanout) Emit(ctx context.Context, evt export.ChangeEvent) error {
	var errs []error
	for _, emitter := range f {
		if emitter == nil {
			continue
		}
		if err := emitter.Emit(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
