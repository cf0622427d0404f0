package translator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/valpere/doctran/internal/logging"
)

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Breaker wraps a Completer with a circuit breaker. Once MaxFailures
// consecutive calls fail, calls are rejected with gobreaker.ErrOpenState
// until Timeout has passed. Breaker never retries.
type Breaker struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Completer, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Discard()
	}
	maxFailures := cfg.MaxFailures

	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    next.Name(),
			Timeout: cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change", "backend", name, "from", from.String(), "to", to.String())
			},
			// Cancellation comes from our own fail-fast path, not the service.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

func (b *Breaker) Name() string {
	return b.next.Name()
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return out.(*CompletionResponse), nil
}
