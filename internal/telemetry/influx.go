// Package telemetry publishes accepted solutions to InfluxDB and
// exposes Prometheus gauges for the receiver's live status, the way
// the plotting/monitoring app layer observes the positioning core
// from outside rather than instrumenting it directly.
package telemetry

import (
	influxdb "github.com/influxdata/influxdb-client-go/v2"
	influxapi "github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/fxb-gnss/spp/internal/gnss"
)

// InfluxPublisher writes one point per accepted epoch to an InfluxDB
// "solution" measurement.
type InfluxPublisher struct {
	client   influxdb.Client
	writeAPI influxapi.WriteAPI
	org      string
}

// NewInfluxPublisher opens a non-blocking write client against url,
// authenticated by token, writing into org/bucket.
func NewInfluxPublisher(url, token, org, bucket string) *InfluxPublisher {
	client := influxdb.NewClient(url, token)
	return &InfluxPublisher{
		client:   client,
		writeAPI: client.WriteAPI(org, bucket),
		org:      org,
	}
}

// Publish writes sol's geodetic position and quality status as one
// point, timestamped at the solution's receiver-clock epoch.
func (p *InfluxPublisher) Publish(sol *gnss.Sol) {
	var pos [3]float64
	gnss.Ecef2Pos(sol.Rr[:3], pos[:])
	point := influxdb.NewPointWithMeasurement("solution").
		AddTag("stat", itoa(sol.Stat)).
		AddField("latitude", pos[0]*gnss.R2D).
		AddField("longitude", pos[1]*gnss.R2D).
		AddField("height", pos[2]).
		AddField("ns", sol.Ns).
		AddField("ratio", sol.Ratio).
		SetTime(epochTime(sol.Time))
	p.writeAPI.WritePoint(point)
}

// Flush blocks until all buffered points have been written.
func (p *InfluxPublisher) Flush() { p.writeAPI.Flush() }

// Close flushes and releases the underlying HTTP client.
func (p *InfluxPublisher) Close() {
	p.writeAPI.Flush()
	p.client.Close()
}
