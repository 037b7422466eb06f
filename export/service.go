package export

import (
	"context"
	"time"
)

// Service is the single entry point shared by every export trigger.
type Service interface {
	ExportDocument(ctx context.Context, req ExportRequest) (ExportResult, error)
	ExportDeck(ctx context.Context, req ExportRequest) (ExportResult, error)
	Status(ctx context.Context) (JobStatus, error)
}

// ServiceConfig supplies dependencies for Service.
type ServiceConfig struct {
	Runner *Runner
	Logger Logger
	Now    func() time.Time
}

type service struct {
	runner *Runner
	logger Logger
}

// NewService creates a Service with the provided configuration.
func NewService(cfg ServiceConfig) Service {
	runner := cfg.Runner
	if runner == nil {
		runner = NewRunner()
	}
	if cfg.Logger != nil && (runner.Logger == nil || isNopLogger(runner.Logger)) {
		runner.Logger = cfg.Logger
	}
	if cfg.Now != nil {
		runner.Now = cfg.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = runner.Logger
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &service{runner: runner, logger: logger}
}

func (s *service) ExportDocument(ctx context.Context, req ExportRequest) (ExportResult, error) {
	req.Format = FormatDocument
	return s.run(ctx, req)
}

func (s *service) ExportDeck(ctx context.Context, req ExportRequest) (ExportResult, error) {
	req.Format = FormatDeck
	return s.run(ctx, req)
}

func (s *service) Status(ctx context.Context) (JobStatus, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return JobStatus{}, err
		}
	}
	return s.runner.Status(), nil
}

func (s *service) run(ctx context.Context, req ExportRequest) (ExportResult, error) {
	result, err := s.runner.Run(ctx, req)
	if err != nil {
		return ExportResult{}, err
	}
	s.logger.Infof("export %s (%s) saved as %s: %d units, %d skipped", result.ID, result.Format, result.Filename, result.Units, len(result.Skipped))
	return result, nil
}

func isNopLogger(logger Logger) bool {
	_, ok := logger.(NopLogger)
	return ok
}
