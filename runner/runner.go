// Package runner sequences the parse-then-export pipeline over a list of
// channels.
package runner

import (
	"context"
	"log/slog"

	"telegram-parser/pkg/channel"
)

// Parser produces a result for one channel.
type Parser interface {
	ParseChannel(ctx context.Context, target channel.Target) (*channel.Result, error)
}

// Exporter persists one result and returns the file it wrote.
type Exporter interface {
	Export(res *channel.Result, channelName string) (string, error)
}

// Uploader mirrors an exported file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, path string) error
}

// Summary counts the outcome of a run.
type Summary struct {
	Parsed int
	Failed int
}

// Runner walks the channel list, one channel at a time, isolating failures:
// a channel that cannot be parsed or exported is logged and skipped, never
// taking the rest of the run down with it.
type Runner struct {
	parser   Parser
	exporter Exporter
	uploader Uploader // nil when no remote mirror is configured
	logger   *slog.Logger
}

// New creates a runner. uploader may be nil.
func New(parser Parser, exporter Exporter, uploader Uploader, logger *slog.Logger) *Runner {
	return &Runner{
		parser:   parser,
		exporter: exporter,
		uploader: uploader,
		logger:   logger,
	}
}

// RunAll processes every target in order. It stops early only when ctx is
// done, returning the summary so far alongside the context's error.
func (r *Runner) RunAll(ctx context.Context, targets []channel.Target) (Summary, error) {
	var sum Summary
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run cancelled", "remaining", len(targets)-i)
			return sum, err
		}
		if r.runOne(ctx, target) {
			sum.Parsed++
		} else {
			sum.Failed++
		}
	}

	r.logger.Info("run complete", "parsed", sum.Parsed, "failed", sum.Failed)
	return sum, nil
}

func (r *Runner) runOne(ctx context.Context, target channel.Target) bool {
	name := target.Identifier()
	res, err := r.parser.ParseChannel(ctx, target)
	if err != nil {
		r.logger.Error("parsing channel failed", "channel", name, "error", err)
		return false
	}
	if len(res.Posts) == 0 {
		r.logger.Warn("no posts found", "channel", name)
	}

	path, err := r.exporter.Export(res, name)
	if err != nil {
		r.logger.Error("exporting channel failed", "channel", name, "error", err)
		return false
	}
	r.logger.Info("channel done", "channel", name, "posts", len(res.Posts), "file", path)

	if r.uploader != nil {
		if err := r.uploader.Upload(ctx, path); err != nil {
			// The local file is already on disk; a failed mirror does not
			// fail the channel.
			r.logger.Error("uploading export failed", "channel", name, "file", path, "error", err)
		}
	}
	return true
}
