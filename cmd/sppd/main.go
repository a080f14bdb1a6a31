/*------------------------------------------------------------------------------
* sppd : single-point-positioning daemon
*
* Reads a processing configuration, decodes epochs from a raw receiver
* serial stream, runs the positioning core, and forwards accepted
* solutions to the configured telemetry and storage sinks. With no
* serial port configured it exits after opening the sinks.
*-----------------------------------------------------------------------------*/
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fxb-gnss/spp/internal/config"
	"github.com/fxb-gnss/spp/internal/gnss"
	"github.com/fxb-gnss/spp/internal/ingest"
	"github.com/fxb-gnss/spp/internal/store"
	"github.com/fxb-gnss/spp/internal/telemetry"
)

// decodeEpoch frames one epoch as a uint16 satellite count followed by
// that many fixed-width records. Real deployments bind a receiver-
// specific decoder (RTCM, UBX, NMEA) here; message framing is outside
// the positioning core's concern.
func decodeEpoch(r *bufio.Reader) ([]gnss.Obs, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	obs := make([]gnss.Obs, n)
	for i := range obs {
		var sat uint16
		if err := binary.Read(r, binary.BigEndian, &sat); err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		obs[i].Sat = int(sat)
		for _, f := range []*float64{&obs[i].P[0], &obs[i].P[1], &obs[i].D[0]} {
			if err := binary.Read(r, binary.BigEndian, f); err != nil {
				return nil, io.ErrUnexpectedEOF
			}
		}
	}
	return obs, nil
}

var progname = "sppd"

var help = []string{
	"",
	" usage: sppd -k config.yaml",
	"",
	" -k file   processing/telemetry/store configuration [required]",
	" -?        print help",
	"",
}

func printHelp() {
	for _, line := range help {
		fmt.Println(line)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	opt := cfg.ToProcOpt()

	sessionID := uuid.NewString()
	log.Printf("%s: session=%s starting", progname, sessionID)

	var influx *telemetry.InfluxPublisher
	if cfg.Telemetry.InfluxURL != "" {
		influx = telemetry.NewInfluxPublisher(
			cfg.Telemetry.InfluxURL, cfg.Telemetry.InfluxToken,
			cfg.Telemetry.InfluxOrg, cfg.Telemetry.InfluxBucket)
		defer influx.Close()
	}

	var solSink *store.ClickHouseSink
	if cfg.Store.ClickHouseDSN != "" {
		solSink, err = store.NewClickHouseSink(cfg.Store.ClickHouseDSN)
		if err != nil {
			return errors.Wrap(err, "opening clickhouse solution sink")
		}
	}

	var archive *store.ObsArchive
	if cfg.Store.MongoURI != "" {
		ctx := context.Background()
		archive, err = store.NewObsArchive(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return errors.Wrap(err, "opening mongodb observation archive")
		}
		defer archive.Close(ctx)
	}

	var rawSink *store.ObsSink
	if cfg.Store.ClickHouseRawDSN != "" {
		rawSink, err = store.NewObsSink(cfg.Store.ClickHouseRawDSN)
		if err != nil {
			return errors.Wrap(err, "opening clickhouse raw observation sink")
		}
		defer rawSink.Close()
	}

	var metrics *telemetry.PositionMetrics
	var pusher *telemetry.Pusher
	if cfg.Telemetry.PushGateway != "" {
		metrics = telemetry.NewPositionMetrics()
		pusher = telemetry.NewPusher(cfg.Telemetry.PushGateway, "gnssgo_sol", metrics.Collector())
	}

	nav := &gnss.Nav{} // populated by the broadcast-ephemeris decoder, out of core scope

	processEpoch := func(obs []gnss.Obs) {
		var sol gnss.Sol
		ok, msg := gnss.PntPos(obs, nav, &opt, &sol, nil)
		if !ok {
			log.Printf("session=%s epoch rejected: %s", sessionID, msg)
			return
		}
		if influx != nil {
			influx.Publish(&sol)
		}
		if solSink != nil {
			if err := solSink.Write(&sol); err != nil {
				log.Printf("session=%s solution write failed: %v", sessionID, err)
			}
		}
		if archive != nil {
			if err := archive.Archive(context.Background(), obs); err != nil {
				log.Printf("session=%s observation archive failed: %v", sessionID, err)
			}
		}
		if rawSink != nil {
			if err := rawSink.WriteBatch(obs); err != nil {
				log.Printf("session=%s raw observation write failed: %v", sessionID, err)
			}
		}
		if metrics != nil {
			metrics.Observe(sessionID, &sol)
			if err := pusher.Push(); err != nil {
				log.Printf("session=%s metrics push failed: %v", sessionID, err)
			}
		}
	}

	if cfg.Ingest.Port == "" {
		return nil
	}

	reader, err := ingest.OpenSerial(cfg.Ingest.Port, cfg.Ingest.BaudRate, decodeEpoch)
	if err != nil {
		return errors.Wrap(err, "opening ingest serial port")
	}
	defer reader.Close()

	for {
		obs, err := reader.NextEpoch()
		if err != nil {
			return errors.Wrap(err, "reading epoch from serial stream")
		}
		processEpoch(obs)
	}
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "k", "", "configuration file")
	showHelp := flag.Bool("?", false, "print help")
	flag.Parse()

	if *showHelp || cfgPath == "" {
		printHelp()
		if cfgPath == "" {
			os.Exit(2)
		}
		return
	}

	if err := run(cfgPath); err != nil {
		log.Fatalf("%s: %v", progname, err)
	}
}
