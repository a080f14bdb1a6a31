package telemetry

import (
	"strconv"
	"time"

	"github.com/fxb-gnss/spp/internal/gnss"
)

func itoa(v int) string { return strconv.Itoa(v) }

func epochTime(t gnss.Gtime) time.Time {
	return time.Unix(int64(t.Time), int64(t.Sec*1e9))
}
