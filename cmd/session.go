package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/outlookctl/internal/backend/fixture"
	"github.com/teemow/outlookctl/internal/backend/ole"
	"github.com/teemow/outlookctl/internal/config"
	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/logging"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/tools/batch"
)

// newBackend creates the configured backend.
func (o *rootOptions) newBackend() (outlook.Backend, error) {
	switch o.cfg.Backend {
	case config.BackendFixture:
		return fixture.New(o.cfg.Fixture.Path, fixture.Options{
			MaxOpenHandles: o.cfg.Fixture.MaxOpenHandles,
			Writeback:      o.cfg.Fixture.Writeback,
			Now:            o.now,
			Logger:         o.logger,
		}), nil
	case config.BackendOLE:
		return ole.New(ole.Options{Logger: o.logger}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", o.cfg.Backend)
	}
}

// sessionOptions returns the session options of the configuration.
func (o *rootOptions) sessionOptions(metrics *instrumentation.Metrics) outlook.Options {
	return outlook.Options{
		Logger:   o.logger,
		Metrics:  metrics,
		Interval: o.cfg.Interval(),
		Hours:    o.cfg.Hours(),
		Now:      o.now,
	}
}

// withSession opens a session for cmd, runs fn and closes the session.
// A close failure is returned when fn succeeded; a failed writeback
// must not go unreported.
func (o *rootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *outlook.Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := o.newBackend()
	if err != nil {
		return err
	}
	s, err := outlook.Open(ctx, backend, o.sessionOptions(nil))
	if err != nil {
		return err
	}

	err = fn(ctx, s)
	if cerr := s.Close(); cerr != nil {
		if err == nil {
			return cerr
		}
		o.logger.Warn("failed to close session", logging.Operation(cmd.Name()), logging.Err(cerr))
	}
	return err
}

// runSession runs fn in a session and prints its result.
func (o *rootOptions) runSession(cmd *cobra.Command, fn func(ctx context.Context, s *outlook.Session) (interface{}, error)) error {
	var data interface{}
	err := o.withSession(cmd, func(ctx context.Context, s *outlook.Session) error {
		var err error
		data, err = fn(ctx, s)
		return err
	})
	if err != nil {
		return o.fail(cmd.Name(), err)
	}
	return o.succeed(cmd.Name(), data)
}

// runBatch applies fn to every id, one session per chunk of ids. The
// command fails only when every id failed.
func (o *rootOptions) runBatch(cmd *cobra.Command, ids []string, fn func(ctx context.Context, s *outlook.Session, id string) (string, error)) error {
	var results []batch.Result
	for _, chunk := range batch.Chunks(ids, batch.DefaultChunkSize) {
		var chunkResults []batch.Result
		err := o.withSession(cmd, func(ctx context.Context, s *outlook.Session) error {
			chunkResults = batch.ProcessBatch(ctx, chunk, func(ctx context.Context, id string) (string, error) {
				return fn(ctx, s, id)
			})
			return nil
		})
		if err != nil {
			chunkResults = chunkResults[:0]
			for _, id := range chunk {
				chunkResults = append(chunkResults, batch.NewErrorResult(id, err))
			}
		}
		results = append(results, chunkResults...)
	}

	summary := batch.Summarize(results)
	if summary.Total > 0 && summary.Successful == 0 {
		first := summary.Results[0]
		return o.failWith(cmd.Name(), summary, first.Code, first.Error)
	}
	return o.succeed(cmd.Name(), summary)
}

// timeFlag parses an optional time flag value in local time.
func timeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := outlook.ParseTime(value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}
