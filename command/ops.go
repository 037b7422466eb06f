package command

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-visual-export/export"
)

// SnapshotRequest describes one artifact of a snapshot run.
type SnapshotRequest struct {
	Format   export.Format `json:"format"`
	Entry    string        `json:"entry,omitempty"`
	Preset   string        `json:"preset,omitempty"`
	Filename string        `json:"filename,omitempty"`
}

// SnapshotLoader loads snapshot requests from a source.
type SnapshotLoader func(ctx context.Context) ([]SnapshotRequest, error)

// SnapshotCommand exports the page in several formats, one after another,
// for CLI or cron execution.
type SnapshotCommand struct {
	service     export.Service
	loader      SnapshotLoader
	cliConfig   gcmd.CLIConfig
	cronConfig  gcmd.HandlerConfig
	minInterval time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// SnapshotOption customizes snapshot commands.
type SnapshotOption func(*SnapshotCommand)

// WithSnapshotCronConfig overrides cron configuration.
func WithSnapshotCronConfig(cfg gcmd.HandlerConfig) SnapshotOption {
	return func(cmd *SnapshotCommand) {
		cmd.cronConfig = cfg
	}
}

// WithSnapshotInterval waits between consecutive exports.
func WithSnapshotInterval(interval time.Duration) SnapshotOption {
	return func(cmd *SnapshotCommand) {
		cmd.minInterval = interval
	}
}

// DefaultSnapshot exports one document and one deck with default options.
func DefaultSnapshot(ctx context.Context) ([]SnapshotRequest, error) {
	_ = ctx
	return []SnapshotRequest{
		{Format: export.FormatDocument},
		{Format: export.FormatDeck},
	}, nil
}

// NewSnapshotCommand creates a snapshot CLI/Cron command. A nil loader
// falls back to DefaultSnapshot.
func NewSnapshotCommand(svc export.Service, loader SnapshotLoader, opts ...SnapshotOption) *SnapshotCommand {
	if loader == nil {
		loader = DefaultSnapshot
	}
	cmd := &SnapshotCommand{
		service: svc,
		loader:  loader,
		cliConfig: gcmd.CLIConfig{
			Path:        []string{"exports-snapshot"},
			Description: "Export the page as a document and a deck",
			Group:       "exports",
		},
		cronConfig: gcmd.HandlerConfig{Expression: "0 6 * * *"},
		sleep:      waitInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// Run executes the snapshot and returns the produced results.
func (c *SnapshotCommand) Run(ctx context.Context, from string) ([]export.ExportResult, error) {
	if c == nil {
		return nil, errors.New("snapshot command is nil", errors.CategoryInternal).
			WithTextCode("SNAPSHOT_CMD_NIL")
	}
	if c.service == nil {
		return nil, serviceRequired()
	}

	requests, err := c.loadRequests(ctx, from)
	if err != nil {
		return nil, err
	}

	results := make([]export.ExportResult, 0, len(requests))
	for i, item := range requests {
		if i > 0 && c.minInterval > 0 && c.sleep != nil {
			if err := c.sleep(ctx, c.minInterval); err != nil {
				return results, err
			}
		}
		req, err := item.exportRequest()
		if err != nil {
			return results, err
		}
		var result export.ExportResult
		switch export.NormalizeFormat(item.Format) {
		case export.FormatDeck:
			result, err = c.service.ExportDeck(ctx, req)
		case export.FormatDocument:
			result, err = c.service.ExportDocument(ctx, req)
		default:
			err = export.ValidateFormat(export.NormalizeFormat(item.Format))
		}
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// CronHandler executes the snapshot on a schedule.
func (c *SnapshotCommand) CronHandler() func() error {
	return func() error {
		_, err := c.Run(context.Background(), "")
		return err
	}
}

// CronOptions returns cron configuration.
func (c *SnapshotCommand) CronOptions() gcmd.HandlerConfig {
	if c == nil {
		return gcmd.HandlerConfig{}
	}
	return c.cronConfig
}

// CLIOptions returns CLI configuration.
func (c *SnapshotCommand) CLIOptions() gcmd.CLIConfig {
	if c == nil {
		return gcmd.CLIConfig{}
	}
	return c.cliConfig
}

func waitInterval(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *SnapshotCommand) loadRequests(ctx context.Context, from string) ([]SnapshotRequest, error) {
	if strings.TrimSpace(from) != "" {
		return loadSnapshotRequestsFromFile(from)
	}
	return c.loader(ctx)
}

func (r SnapshotRequest) exportRequest() (export.ExportRequest, error) {
	if err := validateEntry(r.Entry); err != nil {
		return export.ExportRequest{}, err
	}
	opts, err := export.PresetOverrides(r.Preset)
	if err != nil {
		return export.ExportRequest{}, err
	}
	opts.Filename = r.Filename
	return export.ExportRequest{Entry: r.Entry, Options: opts}, nil
}

func loadSnapshotRequestsFromFile(path string) ([]SnapshotRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "read snapshot file failed").
			WithTextCode("SNAPSHOT_FILE_READ")
	}

	var requests []SnapshotRequest
	if err := json.Unmarshal(content, &requests); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "snapshot file invalid JSON").
			WithTextCode("SNAPSHOT_FILE_INVALID")
	}
	return requests, nil
}
