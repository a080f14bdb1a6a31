package gnss

import "math"

// VarErr returns the pseudorange measurement-error variance (m^2) at
// elevation el for constellation sys, per the reference receiver's
// error model: a constant term plus an elevation-dependent term,
// scaled by a per-system error factor and, under IFLC, by the
// iono-free noise amplification of 9.
func VarErr(opt *PrcOpt, el float64, sys int) float64 {
	var fact float64
	switch sys {
	case SysGLO:
		fact = EFactGLO
	case SysSBS:
		fact = EFactSBS
	default:
		fact = EFactGPS
	}
	if el < MinEl {
		el = MinEl
	}
	v := SQR(opt.Err[0]) * (SQR(opt.Err[1]) + SQR(opt.Err[2])/math.Sin(el))
	if opt.IonoOpt == IonoOptIFLC {
		v *= 9.0
	}
	return SQR(fact) * v
}

// Prange returns the code pseudorange for obs after group-delay / TGD
// correction (single frequency) or the iono-free linear combination
// (dual frequency, IonoOptIFLC), and writes the correction's own
// variance contribution to vari. Returns 0 if the required
// pseudorange(s) are missing, signalling the caller to drop this
// satellite.
func Prange(obs *Obs, nav *Nav, opt *PrcOpt, vari *float64) float64 {
	sat := obs.Sat
	sys := SatSys(sat, nil)
	P1, P2 := obs.P[0], obs.P[1]
	code1 := obs.Code[0]
	*vari = 0.0

	if P1 == 0.0 || (opt.IonoOpt == IonoOptIFLC && P2 == 0.0) {
		return 0.0
	}

	if opt.IonoOpt == IonoOptIFLC {
		switch sys {
		case SysGPS, SysQZS:
			gamma := SQR(Freq1 / Freq2)
			return (P2 - gamma*P1) / (1.0 - gamma)
		case SysGLO:
			gamma := SQR(Freq1GLO / Freq2GLO)
			return (P2 - gamma*P1) / (1.0 - gamma)
		case SysGAL:
			gamma := SQR(Freq1 / Freq7)
			if GetSelEph(SysGAL) > 0 { // F/NAV
				P2 -= nav.GetTgd(sat, 0) - nav.GetTgd(sat, 1) // BGD_E5aE5b
			}
			return (P2 - gamma*P1) / (1.0 - gamma)
		case SysCMP:
			var gamma, b1, b2 float64
			if code1 == CodeL2I {
				gamma = SQR(Freq1CMP / Freq2CMP)
				b1 = nav.GetTgd(sat, 0) // TGD_B1I
			} else if code1 == CodeL1P {
				gamma = SQR(Freq1 / Freq2CMP)
				b1 = nav.GetTgd(sat, 2) // TGD_B1Cp
			} else {
				gamma = SQR(Freq1 / Freq2CMP)
				b1 = nav.GetTgd(sat, 2) + nav.GetTgd(sat, 3) // TGD_B1Cp+ISC_B1Cd
			}
			b2 = nav.GetTgd(sat, 1) // TGD_B2I
			return ((P2 - gamma*P1) - (b2 - gamma*b1)) / (1.0 - gamma)
		case SysIRN:
			gamma := SQR(Freq5 / Freq9)
			return (P2 - gamma*P1) / (1.0 - gamma)
		}
		return 0.0
	}

	*vari = SQR(ErrCBias)
	switch sys {
	case SysGPS, SysQZS:
		b1 := nav.GetTgd(sat, 0)
		return P1 - b1
	case SysGLO:
		gamma := SQR(Freq1GLO / Freq2GLO)
		b1 := nav.GetTgd(sat, 0) // -dtaun (m)
		return P1 - b1/(gamma-1.0)
	case SysGAL:
		var b1 float64
		if GetSelEph(SysGAL) > 0 { // F/NAV
			b1 = nav.GetTgd(sat, 0) // BGD_E1E5a
		} else { // I/NAV (default)
			b1 = nav.GetTgd(sat, 1) // BGD_E1E5b
		}
		return P1 - b1
	case SysCMP:
		var b1 float64
		if code1 == CodeL2I {
			b1 = nav.GetTgd(sat, 0)
		} else if code1 == CodeL1P {
			b1 = nav.GetTgd(sat, 2)
		} else {
			b1 = nav.GetTgd(sat, 2) + nav.GetTgd(sat, 3)
		}
		return P1 - b1
	case SysIRN:
		gamma := SQR(Freq9 / Freq5)
		b1 := nav.GetTgd(sat, 0)
		return P1 - gamma*b1
	}
	return P1
}

// IonoCorr returns the L1 ionospheric delay (m) and its variance for
// the configured model; ok is false only for the (currently
// unreachable) case of a model that cannot produce a correction.
func IonoCorr(nav *Nav, time Gtime, pos, azel []float64, ionoopt int) (ion, vari float64, ok bool) {
	switch ionoopt {
	case IonoOptBRDC:
		ion = IonModel(time, nav.IonGPS[:], pos, azel)
		vari = SQR(ion * ErrBrdcI)
		return ion, vari, true
	case IonoOptSBAS:
		ion, vari = SbsIonCorr(time, nav, pos, azel)
		return ion, vari, true
	case IonoOptTEC:
		return IonTec(time, nav, pos, azel)
	case IonoOptQZS:
		if Norm(nav.IonQZS[:], 8) > 0.0 {
			ion = IonModel(time, nav.IonQZS[:], pos, azel)
			vari = SQR(ion * ErrBrdcI)
			return ion, vari, true
		}
	}
	if ionoopt == IonoOptOff {
		vari = SQR(ErrIon)
	}
	return 0.0, vari, true
}

// TropCorr returns the tropospheric delay (m) and its variance for
// the configured model.
func TropCorr(pos, azel []float64, tropopt int) (trp, vari float64, ok bool) {
	switch tropopt {
	case TropOptSAAS, TropOptEst, TropOptEstG:
		trp = TropModel(pos, azel, RelHumi)
		vari = SQR(ErrSaas / (math.Sin(azel[1]) + 0.1))
		return trp, vari, true
	case TropOptSBAS:
		trp, vari = SbsTropCorr(pos, azel)
		return trp, vari, true
	}
	if tropopt == TropOptOff {
		vari = SQR(ErrTrop)
	}
	return 0.0, vari, true
}

const (
	TropOptEst  = 3
	TropOptEstG = 4
)
