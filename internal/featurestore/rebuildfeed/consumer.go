package rebuildfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
)

// OnRebuild is called once per accepted RebuildEvent, in the consumer's
// goroutine. Implementations are expected to bump their local generation
// counter and purge any cache keyed on the old one.
type OnRebuild func(RebuildEvent)

// Runner consumes rebuild notifications as part of a consumer group,
// the same shape as pkg/invalidation/kafka.Runner but carrying rebuild
// generations instead of per-cell cache-key deletions.
type Runner struct {
	log       *slog.Logger
	cfg       Config
	onRebuild OnRebuild
	ms        *metricSet
	dedupe    *generationDedupe
	assigned  atomic.Bool
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

type Options struct {
	Logger   *slog.Logger
	Register prometheus.Registerer
}

func New(cfg Config, onRebuild OnRebuild, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		log:       opts.Logger,
		cfg:       cfg,
		onRebuild: onRebuild,
		ms:        newMetricSet(opts.Register),
		dedupe:    newGenerationDedupe(256),
	}
}

func (r *Runner) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.log.Info("rebuild feed disabled")
		return nil
	}
	if r.onRebuild == nil {
		return errors.New("rebuildfeed: OnRebuild callback is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = r.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = r.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = r.cfg.RebalanceTimeout
	if r.cfg.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("rebuildfeed: consumer group: %w", err)
	}

	h := &groupHandler{
		setup:   func(sarama.ConsumerGroupSession) { r.assigned.Store(true) },
		cleanup: func(sarama.ConsumerGroupSession) { r.assigned.Store(false) },
		process: r.handleMessage,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("rebuildfeed consumer group close", "err", err)
			}
		}()
		for {
			if err := group.Consume(ctx, []string{r.cfg.Topic}, h); err != nil {
				r.log.Error("rebuildfeed consume error", "err", err)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("rebuildfeed group error", "err", err)
		}
	}()

	r.log.Info("rebuild feed consumer started", "topic", r.cfg.Topic, "group", r.cfg.GroupID)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Readiness reports whether this runner currently holds a consumer-group
// partition assignment, satisfying internal/core/health.ReadinessReporter.
// A disabled runner is always ready: there is nothing to wait on.
func (r *Runner) Readiness() (bool, []int32) {
	if !r.cfg.Enabled {
		return true, nil
	}
	return r.assigned.Load(), nil
}

func (r *Runner) handleMessage(_ context.Context, msg *sarama.ConsumerMessage) error {
	var ev RebuildEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		r.ms.events.WithLabelValues("decode_error").Inc()
		return fmt.Errorf("rebuildfeed: decode: %w", err)
	}

	if !r.dedupe.shouldApply(ev.TablePath, ev.Generation) {
		r.ms.events.WithLabelValues("stale").Inc()
		return nil
	}

	r.onRebuild(ev)
	r.ms.events.WithLabelValues("applied").Inc()
	return nil
}

type groupHandler struct {
	setup   func(sarama.ConsumerGroupSession)
	cleanup func(sarama.ConsumerGroupSession)
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
