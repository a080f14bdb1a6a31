package gnss

import "math"

// TestSnr reports whether the C/N0 observed at el for frequency index
// idx falls below the interpolated elevation-banded mask, i.e.
// whether this signal should be rejected.
func TestSnr(idx int, el, snr float64, mask *SnrMask) bool {
	if !mask.Enabled || idx < 0 || idx >= len(mask.Mask) {
		return false
	}
	a := (el*R2D + 5.0) / 10.0
	i := int(math.Floor(a))
	a -= float64(i)
	var minSNR float64
	switch {
	case i < 1:
		minSNR = mask.Mask[idx][0]
	case i > 8:
		minSNR = mask.Mask[idx][8]
	default:
		minSNR = (1.0-a)*mask.Mask[idx][i-1] + a*mask.Mask[idx][i]
	}
	return snr < minSNR
}

// snrMasked applies TestSnr to an observation's primary (and, under
// IFLC, secondary) frequency.
func snrMasked(o *Obs, azel []float64, opt *PrcOpt) bool {
	if TestSnr(0, azel[1], float64(o.SNR[0])*SNRUnit, &opt.SnrMask) {
		return true
	}
	if opt.IonoOpt == IonoOptIFLC {
		return TestSnr(1, azel[1], float64(o.SNR[1])*SNRUnit, &opt.SnrMask)
	}
	return false
}
