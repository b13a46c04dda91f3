package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/tracelab/entiq/pkg/alert"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

// BreakerConfig configures circuit breaking around an entity loader.
type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
}

// BreakerLoader wraps an EntityLoader with a circuit breaker so a failing
// storage backend stops being hammered mid-call. When the breaker trips, an
// alert goes out and subsequent loads fail fast with gobreaker.ErrOpenState.
type BreakerLoader struct {
	loader  EntityLoader
	cb      *gobreaker.CircuitBreaker
	alerter alert.Alerter
	logger  *slog.Logger
}

// NewBreakerLoader wraps the given loader. A nil alerter disables alerting.
func NewBreakerLoader(loader EntityLoader, cfg BreakerConfig, alerter alert.Alerter, logger *slog.Logger) *BreakerLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if alerter == nil {
		alerter = &alert.NoOpAlerter{}
	}

	st := gobreaker.Settings{
		Name:        "entity-loader",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				msg := fmt.Sprintf("circuit breaker %q changed state from %s to %s, entity loader is failing", name, from, to)
				logger.Error(msg)
				if err := alerter.Alert("circuit breaker tripped: "+name, msg); err != nil {
					logger.Error("failed to send breaker alert", "error", err)
				}
			}
		},
		IsSuccessful: func(err error) bool {
			// Missing entities and empty relations are data conditions, not
			// backend failures.
			return err == nil || err == types.ErrNotExists || err == types.ErrNoValue
		},
	}

	return &BreakerLoader{
		loader:  loader,
		cb:      gobreaker.NewCircuitBreaker(st),
		alerter: alerter,
		logger:  logger,
	}
}

func (b *BreakerLoader) LoadAttributes(ctx context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.loader.LoadAttributes(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]types.Value), nil
}

func (b *BreakerLoader) LoadProperties(ctx context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.loader.LoadProperties(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]types.Value), nil
}

func (b *BreakerLoader) LoadProperty(ctx context.Context, ref types.EntityRef, code string) (types.Value, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.loader.LoadProperty(ctx, ref, code)
	})
	if err != nil {
		return types.Value{}, err
	}
	return v.(types.Value), nil
}

func (b *BreakerLoader) LoadRelation(ctx context.Context, ref types.EntityRef, relation string, sort *fetch.SortOptions, page *fetch.Page) ([]types.EntityRef, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.loader.LoadRelation(ctx, ref, relation, sort, page)
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.EntityRef), nil
}

var _ EntityLoader = (*BreakerLoader)(nil)
