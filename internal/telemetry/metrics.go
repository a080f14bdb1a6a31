package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/fxb-gnss/spp/internal/gnss"
)

// PositionMetrics is the live-position gauge vector, labelled by
// receiver name and tagged with the solution's geodetic coordinates.
type PositionMetrics struct {
	gauge *prometheus.GaugeVec
}

// NewPositionMetrics builds a gauge vector tracking each named
// receiver's last-reported geodetic position.
func NewPositionMetrics() *PositionMetrics {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spp_receiver_position",
			Help: "geodetic position and quality of the last accepted solution",
		},
		[]string{"receiver", "latitude", "longitude", "stat"},
	)
	return &PositionMetrics{gauge: gauge}
}

// Collector exposes the underlying gauge vector for registration or
// for handing to a Pusher.
func (m *PositionMetrics) Collector() prometheus.Collector { return m.gauge }

// Observe records sol under receiver's label set.
func (m *PositionMetrics) Observe(receiver string, sol *gnss.Sol) {
	var pos [3]float64
	gnss.Ecef2Pos(sol.Rr[:3], pos[:])
	m.gauge.WithLabelValues(
		receiver,
		fmt.Sprintf("%f", pos[0]*gnss.R2D),
		fmt.Sprintf("%f", pos[1]*gnss.R2D),
		fmt.Sprintf("%d", sol.Stat),
	).Set(pos[2])
}

// Pusher forwards the registered collectors to a Prometheus
// push-gateway, for receivers that cannot be scraped directly.
type Pusher struct {
	pusher *push.Pusher
}

// NewPusher targets a push-gateway URL under the given job name.
func NewPusher(gatewayURL, job string, collectors ...prometheus.Collector) *Pusher {
	p := push.New(gatewayURL, job)
	for _, c := range collectors {
		p = p.Collector(c)
	}
	return &Pusher{pusher: p}
}

// Push sends the collected metrics to the gateway.
func (p *Pusher) Push() error {
	return p.pusher.Push()
}
