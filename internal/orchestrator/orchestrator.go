// Package orchestrator translates a document's blocks concurrently on a
// bounded worker pool and reassembles them in their original order.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/doctran/internal/classifier"
	"github.com/valpere/doctran/internal/document"
	"github.com/valpere/doctran/internal/logging"
	"github.com/valpere/doctran/internal/placeholder"
)

const DefaultWorkers = 8

type Config struct {
	Workers int `mapstructure:"workers"`
}

// Translator is the per-text translation call. *translator.Client
// satisfies it.
type Translator interface {
	Invoke(ctx context.Context, text, targetLang string) (string, error)
}

type State int

const (
	Pending State = iota
	Dispatching
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Dispatching:
		return "dispatching"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// BlockError reports the block whose translation aborted a run.
type BlockError struct {
	Index int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Index, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// Outcome is the result of a single block task. Exactly one of Block and
// Err is set.
type Outcome struct {
	Index   int
	Kind    classifier.Kind
	Block   document.Block
	Skipped bool
	Err     error
	Latency time.Duration
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Observer is called once per finished task, from the worker goroutine.
type Observer func(Outcome)

type Run struct {
	State      State
	Blocks     []document.Block
	Translated int
	Skipped    int
	Duration   time.Duration
}

type Orchestrator struct {
	client   Translator
	workers  int
	observer Observer
	logger   *slog.Logger
}

type Option func(*Orchestrator)

func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func New(client Translator, config Config, opts ...Option) *Orchestrator {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	o := &Orchestrator{
		client:  client,
		workers: config.Workers,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run translates blocks into targetLang. The returned blocks have the same
// length and order as the input. The first failing block cancels the rest
// of the run; Run waits for every started task before returning a
// *BlockError and no blocks.
func (o *Orchestrator) Run(ctx context.Context, blocks []document.Block, targetLang string) (*Run, error) {
	start := time.Now()
	run := &Run{State: Pending}
	results := make([]document.Block, len(blocks))
	var translated, skipped atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	run.State = Dispatching
	logger := logging.FromContext(ctx, o.logger)
	logger.Debug("dispatching blocks", "blocks", len(blocks), "workers", o.workers, "lang", targetLang)

	for i, b := range blocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &BlockError{Index: i, Err: err}
			}

			out := o.translateBlock(gctx, logger, i, b, targetLang)
			o.notify(out)
			if out.Err != nil {
				return &BlockError{Index: i, Err: out.Err}
			}

			results[i] = out.Block
			if out.Skipped {
				skipped.Add(1)
			} else {
				translated.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	run.Duration = time.Since(start)
	run.Translated = int(translated.Load())
	run.Skipped = int(skipped.Load())

	if err != nil {
		run.State = Aborted
		logger.Warn("translation run aborted", "error", err, "duration", run.Duration)
		return run, err
	}

	run.State = Completed
	run.Blocks = results
	logger.Info("translation run completed",
		"blocks", len(blocks),
		"translated", run.Translated,
		"skipped", run.Skipped,
		"duration", run.Duration,
	)
	return run, nil
}

func (o *Orchestrator) translateBlock(ctx context.Context, logger *slog.Logger, i int, b document.Block, lang string) Outcome {
	start := time.Now()
	c := classifier.Classify(b)
	out := Outcome{Index: i, Kind: c.Kind}

	if !c.Translatable {
		out.Block = b
		out.Skipped = true
		return out
	}

	flat, tokens := placeholder.Encode(c.Nodes)
	text, err := o.client.Invoke(ctx, flat, lang)
	if err != nil {
		out.Err = err
		out.Latency = time.Since(start)
		return out
	}

	restored, mismatches := placeholder.Decode(text, tokens)
	for _, m := range mismatches {
		logger.Warn("placeholder mismatch", "block", i, "marker", m.Marker, "kind", string(m.Kind))
	}

	out.Block = classifier.Rebuild(b, restored)
	out.Latency = time.Since(start)
	return out
}

func (o *Orchestrator) notify(out Outcome) {
	if o.observer != nil {
		o.observer(out)
	}
}
