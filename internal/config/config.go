// Package config loads receiver processing options from a YAML file
// into the gnss core's PrcOpt, the way the receiver/app layer feeds
// options into the positioning core rather than hard-coding them.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fxb-gnss/spp/internal/gnss"
)

// File is the on-disk representation of a processing configuration;
// field names mirror the option groups the core's PrcOpt consumes.
type File struct {
	NavSys  []string `yaml:"nav_sys"`
	ElMin   float64  `yaml:"elevation_mask_deg"`
	IonoOpt string   `yaml:"iono_opt"`
	TropOpt string   `yaml:"tropo_opt"`
	SatEph  string   `yaml:"sat_eph"`
	MaxGdop float64  `yaml:"max_gdop"`
	RaimFde bool     `yaml:"raim_fde"`
	Err     [5]float64 `yaml:"err"`
	ExSats  []int    `yaml:"excluded_sats"`

	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// StoreConfig configures the persistence sinks: a ClickHouse analytics
// table reached through sqlx/gorm, and a MongoDB archive of raw
// observation batches.
type StoreConfig struct {
	ClickHouseDSN    string `yaml:"clickhouse_dsn"`
	ClickHouseRawDSN string `yaml:"clickhouse_raw_dsn"`
	MongoURI         string `yaml:"mongo_uri"`
	MongoDatabase    string `yaml:"mongo_database"`
}

// TelemetryConfig configures the InfluxDB solution publisher and the
// Prometheus push-gateway endpoint.
type TelemetryConfig struct {
	InfluxURL    string `yaml:"influx_url"`
	InfluxToken  string `yaml:"influx_token"`
	InfluxOrg    string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`
	PushGateway  string `yaml:"push_gateway"`
}

// IngestConfig configures the raw receiver serial stream.
type IngestConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return &f, nil
}

var navSysTags = map[string]int{
	"gps": gnss.SysGPS, "glo": gnss.SysGLO, "gal": gnss.SysGAL,
	"qzs": gnss.SysQZS, "cmp": gnss.SysCMP, "irn": gnss.SysIRN, "sbs": gnss.SysSBS,
}

var ionoOpts = map[string]int{
	"off": gnss.IonoOptOff, "brdc": gnss.IonoOptBRDC, "sbas": gnss.IonoOptSBAS,
	"iflc": gnss.IonoOptIFLC, "tec": gnss.IonoOptTEC, "qzs": gnss.IonoOptQZS,
}

var tropOpts = map[string]int{
	"off": gnss.TropOptOff, "saas": gnss.TropOptSAAS, "sbas": gnss.TropOptSBAS,
}

var satEphOpts = map[string]int{
	"brdc": gnss.EphOptBRDC, "sbas": gnss.EphOptSBAS,
}

// ToProcOpt translates the YAML file into a gnss.PrcOpt, defaulting
// any option the file leaves unset to DefaultProcOpt's value.
func (f *File) ToProcOpt() gnss.PrcOpt {
	opt := gnss.DefaultProcOpt()

	if len(f.NavSys) > 0 {
		sys := 0
		for _, tag := range f.NavSys {
			sys |= navSysTags[tag]
		}
		if sys != 0 {
			opt.NavSys = sys
		}
	}
	if f.ElMin > 0 {
		opt.Elmin = f.ElMin * gnss.D2R
	}
	if v, ok := ionoOpts[f.IonoOpt]; ok {
		opt.IonoOpt = v
	}
	if v, ok := tropOpts[f.TropOpt]; ok {
		opt.TropOpt = v
	}
	if v, ok := satEphOpts[f.SatEph]; ok {
		opt.SatEph = v
	}
	if f.MaxGdop > 0 {
		opt.MaxGdop = f.MaxGdop
	}
	if f.Err != [5]float64{} {
		opt.Err = f.Err
	}
	opt.PosOpt[4] = f.RaimFde
	for _, sat := range f.ExSats {
		opt.ExSats[sat] = 1
	}
	return opt
}
