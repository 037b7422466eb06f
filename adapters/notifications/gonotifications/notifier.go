package gonotifications

import (
	"context"
	"fmt"

	"github.com/goliatone/go-notifications/pkg/onready"
	"github.com/goliatone/go-visual-export/export"
)

// Config selects who is told when an artifact is ready.
type Config struct {
	Recipients []string
	Channels   []string
	Locale     string
	TenantID   string
	ActorID    string
	// URL is where the artifact can be fetched, e.g. the archive location.
	URL func(filename string) string
}

// Notifier sends a go-notifications ready event for every completed export.
// Other lifecycle events are ignored.
type Notifier struct {
	delegate onready.OnReadyNotifier
	cfg      Config
}

var _ export.ChangeEmitter = (*Notifier)(nil)

// NewNotifier wraps a go-notifications notifier.
func NewNotifier(delegate onready.OnReadyNotifier, cfg Config) *Notifier {
	return &Notifier{delegate: delegate, cfg: cfg}
}

// Emit forwards export.completed events to the underlying notifier.
func (n *Notifier) Emit(ctx context.Context, evt export.ChangeEvent) error {
	if evt.Name != "export.completed" {
		return nil
	}
	if n == nil || n.delegate == nil {
		return export.NewError(export.KindNotImpl, "go-notifications notifier not configured", nil)
	}

	filename, _ := evt.Metadata["filename"].(string)
	units, _ := evt.Metadata["units"].(int)
	payload := onready.OnReadyEvent{
		Recipients: n.cfg.Recipients,
		Channels:   n.cfg.Channels,
		Locale:     n.cfg.Locale,
		TenantID:   n.cfg.TenantID,
		ActorID:    n.cfg.ActorID,
		FileName:   filename,
		Format:     string(evt.Format),
		Parts:      units,
		Message:    readyMessage(evt.Format, filename, units),
	}
	if n.cfg.URL != nil && filename != "" {
		payload.URL = n.cfg.URL(filename)
	}

	return n.delegate.Send(ctx, payload)
}

func readyMessage(format export.Format, filename string, units int) string {
	unit := "pages"
	if format == export.FormatDeck {
		unit = "slides"
	}
	return fmt.Sprintf("%s is ready (%d %s)", filename, units, unit)
}
