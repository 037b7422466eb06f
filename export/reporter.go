package export

import (
	"context"
	"fmt"
	"sync"
)

// OverlayState is the visibility state of the progress overlay.
type OverlayState string

const (
	OverlayHidden  OverlayState = "hidden"
	OverlayShowing OverlayState = "showing"
)

// Reporter owns the progress overlay of one job.
type Reporter struct {
	Overlay Overlay
	Logger  Logger

	mu      sync.Mutex
	state   OverlayState
	message string
}

// NewReporter creates a reporter over an overlay. A nil overlay only logs.
func NewReporter(overlay Overlay, logger Logger) *Reporter {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Reporter{Overlay: overlay, Logger: logger, state: OverlayHidden}
}

// Start shows the overlay with the initial message.
func (r *Reporter) Start(ctx context.Context, format Format, total int) {
	msg := fmt.Sprintf("Preparing %s export (0/%d)", formatLabel(format), total)
	r.mu.Lock()
	r.state = OverlayShowing
	r.message = msg
	r.mu.Unlock()

	if r.Overlay != nil {
		if err := r.Overlay.Show(ctx, msg); err != nil {
			r.Logger.Errorf("progress overlay show failed: %v", err)
		}
	}
}

// Progress updates the overlay with a (current/total) counter.
func (r *Reporter) Progress(ctx context.Context, current, total int, title string) {
	msg := fmt.Sprintf("Capturing %s (%d/%d)", title, current, total)
	r.mu.Lock()
	if r.state != OverlayShowing {
		r.mu.Unlock()
		return
	}
	r.message = msg
	r.mu.Unlock()

	if r.Overlay != nil {
		if err := r.Overlay.Update(ctx, msg); err != nil {
			r.Logger.Errorf("progress overlay update failed: %v", err)
		}
	}
}

// Message sets a free-form overlay message while showing.
func (r *Reporter) Message(ctx context.Context, msg string) {
	r.mu.Lock()
	if r.state != OverlayShowing {
		r.mu.Unlock()
		return
	}
	r.message = msg
	r.mu.Unlock()

	if r.Overlay != nil {
		if err := r.Overlay.Update(ctx, msg); err != nil {
			r.Logger.Errorf("progress overlay update failed: %v", err)
		}
	}
}

// Finish hides the overlay. It runs on every exit path and may be called repeatedly.
func (r *Reporter) Finish(ctx context.Context) {
	r.mu.Lock()
	wasShowing := r.state == OverlayShowing
	r.state = OverlayHidden
	r.message = ""
	r.mu.Unlock()

	if !wasShowing || r.Overlay == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := r.Overlay.Hide(context.WithoutCancel(ctx)); err != nil {
		r.Logger.Errorf("progress overlay hide failed: %v", err)
	}
}

// State returns the overlay state and current message.
func (r *Reporter) State() (OverlayState, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == "" {
		return OverlayHidden, ""
	}
	return r.state, r.message
}

func formatLabel(format Format) string {
	switch format {
	case FormatDeck:
		return "slide deck"
	case FormatDocument:
		return "document"
	default:
		return string(format)
	}
}
