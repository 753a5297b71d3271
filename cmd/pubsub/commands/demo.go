package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ncobase/pubsub/bus"
	"github.com/ncobase/pubsub/config"
	"github.com/ncobase/pubsub/ctxutil"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type demoOptions struct {
	follow      bool
	interval    time.Duration
	metrics     bool
	drainWithin time.Duration
}

// NewDemoCommand runs the bus through its delivery scenarios
func NewDemoCommand() *cobra.Command {
	opts := &demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run publish/subscribe scenarios against a configured bus",
		Long: `Run publish/subscribe scenarios against a bus built from configuration:
subscribe/unsubscribe, replay of pending events to late subscribers and
isolation of a panicking handler. With --follow a tick event is broadcast
until interrupted and the config file is watched for logger changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")

			ctx, _ := ctxutil.EnsureTraceID(cmd.Context())
			a, err := newApp(ctx, path)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			runScenarios(ctx, a, out)

			if opts.follow {
				if err := follow(ctx, a, opts.interval); err != nil {
					return err
				}
			}

			drainCtx, cancel := ctxutil.WithAsyncContext(ctx, opts.drainWithin)
			defer cancel()
			if err := a.bus.Drain(drainCtx); err != nil {
				a.log.Warnf(ctx, "deliveries still running after %s: %v", opts.drainWithin, err)
			}

			if opts.metrics {
				return writeMetrics(a, out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "keep broadcasting ticks until interrupted")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second, "tick interval with --follow")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print Prometheus metrics when done")
	cmd.Flags().DurationVar(&opts.drainWithin, "drain-timeout", 5*time.Second, "how long to wait for running handlers")

	return cmd
}

// recorder collects payloads per label
type recorder struct {
	mu   sync.Mutex
	seen map[string][]any
}

func newRecorder() *recorder {
	return &recorder{seen: make(map[string][]any)}
}

func (r *recorder) handler(label string) bus.Handler {
	return func(payload any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seen[label] = append(r.seen[label], payload)
	}
}

func (r *recorder) get(label string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[label]
}

// runScenarios exercises subscribe, broadcast, unsubscribe and replay
func runScenarios(ctx context.Context, a *app, out io.Writer) {
	b := a.bus
	rec := newRecorder()

	// subscribe, deliver, unsubscribe
	sub1 := b.Subscribe("order.created", rec.handler("h1"))
	b.Broadcast("order.created", map[string]int{"id": 1})
	b.Wait()
	b.Unsubscribe("order.created", sub1)
	b.Broadcast("order.created", map[string]int{"id": 2})
	b.Wait()
	fmt.Fprintf(out, "order.created: %s received %v\n", sub1, rec.get("h1"))

	// replay of pending events to late subscribers
	b.Broadcast("x", 42)
	first := b.Subscribe("x", rec.handler("late-1"), bus.CollectPreviousEvents())
	second := b.Subscribe("x", rec.handler("late-2"), bus.CollectPreviousEvents())
	b.Wait()
	fmt.Fprintf(out, "x: %s replayed %v, %s replayed %v\n", first, rec.get("late-1"), second, rec.get("late-2"))

	// a panicking handler does not affect its sibling
	b.Subscribe("job.failed", func(any) { panic("handler failure") })
	b.Subscribe("job.failed", rec.handler("sibling"))
	b.Broadcast("job.failed", "job-7")
	b.Wait()
	fmt.Fprintf(out, "job.failed: sibling received %v\n", rec.get("sibling"))

	s := b.Snapshot()
	fmt.Fprintf(out, "history=%d pending=%d delivered=%d failed=%d\n", s.HistorySize, s.PendingSize, s.Delivered, s.Failed)
	a.log.Debugf(ctx, "scenario metrics: %v", b.GetMetrics())
}

// follow broadcasts ticks until the process is interrupted
func follow(ctx context.Context, a *app, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.cfg.Watch(func(next *config.Config) {
		a.log.SetLevel(logrus.Level(next.Logger.Level))
		a.log.Infof(ctx, "config reloaded from %s", next.Path())
	}); err != nil {
		a.log.Debugf(ctx, "not watching config: %v", err)
	}

	tick := bus.NewTopic[time.Time](a.bus, "demo.tick")
	tick.Subscribe(func(at time.Time) {
		a.log.Infof(ctx, "tick %s", at.Format(time.RFC3339))
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info(ctx, "follow stopped")
			return nil
		case at := <-ticker.C:
			tick.Broadcast(at)
		}
	}
}

func writeMetrics(a *app, out io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
