package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJobName = "tournament_stats_worker"

// Pusher sends the collected metrics somewhere after each run.
type Pusher interface {
	Push(ctx context.Context) error
}

type gatewayPusher struct {
	pusher *push.Pusher
}

// NewPusher returns a Pusher that sends everything in gatherer to the
// Prometheus Pushgateway at url. The worker has no listening socket, so this
// is the only way its metrics leave the process.
func NewPusher(url, instance string, gatherer prometheus.Gatherer) Pusher {
	p := push.New(url, pushJobName).Gatherer(gatherer)
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	return &gatewayPusher{pusher: p}
}

func (g *gatewayPusher) Push(ctx context.Context) error {
	if err := g.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push failed: %w", err)
	}
	return nil
}
