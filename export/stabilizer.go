package export

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Stabilizer makes a region fully renderable and visually settled before capture.
type Stabilizer struct {
	Settle       time.Duration
	ReadyTimeout time.Duration
	Overrides    StyleOverrides
	Logger       Logger
	Sleep        func(ctx context.Context, d time.Duration) error
}

// RenderOverride is the scoped style override held on one region.
// Release restores the pre-acquire style and is safe to call more than once.
type RenderOverride struct {
	page     Page
	snapshot StyleSnapshot
	once     sync.Once
	err      error
}

// Acquire applies the style overrides, scrolls the region into view and waits
// for it to settle. On error the original style is already restored.
func (s *Stabilizer) Acquire(ctx context.Context, page Page, region RegionRef) (*RenderOverride, error) {
	if page == nil {
		return nil, NewError(KindInternal, "page is nil", nil)
	}

	snapshot, err := page.SnapshotStyle(ctx, region.ID)
	if err != nil {
		return nil, NewCaptureError(region.ID, "snapshot region style", err)
	}
	override := &RenderOverride{page: page, snapshot: snapshot}

	if err := page.ApplyStyle(ctx, region.ID, s.overrides()); err != nil {
		_ = override.Release(ctx)
		return nil, NewCaptureError(region.ID, "apply render overrides", err)
	}
	if err := page.ScrollIntoView(ctx, region.ID); err != nil {
		_ = override.Release(ctx)
		return nil, NewCaptureError(region.ID, "scroll region into view", err)
	}
	if err := s.settle(ctx, page, region); err != nil {
		_ = override.Release(ctx)
		return nil, err
	}
	return override, nil
}

// Release restores the region style captured before the override.
func (o *RenderOverride) Release(ctx context.Context) error {
	if o == nil {
		return nil
	}
	o.once.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		o.err = o.page.RestoreStyle(context.WithoutCancel(ctx), o.snapshot)
	})
	return o.err
}

// Snapshot returns the style state that Release reapplies.
func (o *RenderOverride) Snapshot() StyleSnapshot {
	if o == nil {
		return StyleSnapshot{}
	}
	return o.snapshot
}

func (s *Stabilizer) settle(ctx context.Context, page Page, region RegionRef) error {
	if signaler, ok := page.(ReadySignaler); ok && s.ReadyTimeout > 0 {
		readyCtx, cancel := context.WithTimeout(ctx, s.ReadyTimeout)
		err := signaler.WaitReady(readyCtx, region.ID)
		cancel()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger().Debugf("region %s ready signal timed out after %s, using settle budget", region.ID, s.ReadyTimeout)
		} else {
			s.logger().Debugf("region %s ready signal unavailable: %v", region.ID, err)
		}
	}
	if s.Settle <= 0 {
		return nil
	}
	return s.sleep(ctx, s.Settle)
}

func (s *Stabilizer) overrides() StyleOverrides {
	if len(s.Overrides) > 0 {
		return s.Overrides
	}
	return Options{}.StyleOverridesFor()
}

func (s *Stabilizer) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Stabilizer) logger() Logger {
	if s.Logger == nil {
		return NopLogger{}
	}
	return s.Logger
}
