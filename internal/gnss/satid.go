package gnss

import "fmt"

// SatNo encodes a (system, prn) pair into the core's flat 1..MaxSat
// satellite numbering.
func SatNo(sys, prn int) int {
	if prn <= 0 {
		return 0
	}
	switch sys {
	case SysGPS:
		if prn < MinPRNGPS || prn > MaxPRNGPS {
			return 0
		}
		return prn - MinPRNGPS + 1
	case SysGLO:
		if prn < MinPRNGLO || prn > MaxPRNGLO {
			return 0
		}
		return NSatGPS + prn - MinPRNGLO + 1
	case SysGAL:
		if prn < MinPRNGAL || prn > MaxPRNGAL {
			return 0
		}
		return NSatGPS + NSatGLO + prn - MinPRNGAL + 1
	case SysQZS:
		if prn < MinPRNQZS || prn > MaxPRNQZS {
			return 0
		}
		return NSatGPS + NSatGLO + NSatGAL + prn - MinPRNQZS + 1
	case SysCMP:
		if prn < MinPRNCMP || prn > MaxPRNCMP {
			return 0
		}
		return NSatGPS + NSatGLO + NSatGAL + NSatQZS + prn - MinPRNCMP + 1
	case SysIRN:
		if prn < MinPRNIRN || prn > MaxPRNIRN {
			return 0
		}
		return NSatGPS + NSatGLO + NSatGAL + NSatQZS + NSatCMP + prn - MinPRNIRN + 1
	case SysSBS:
		if prn < MinPRNSBS || prn > MaxPRNSBS {
			return 0
		}
		return NSatGPS + NSatGLO + NSatGAL + NSatQZS + NSatCMP + NSatIRN + prn - MinPRNSBS + 1
	}
	return 0
}

// SatSys decodes sat into its constellation tag and (if prn != nil)
// writes the in-system PRN/slot number.
func SatSys(sat int, prn *int) int {
	sys := SysNone
	s := sat
	switch {
	case s <= 0 || s > MaxSat:
		s = 0
	case s <= NSatGPS:
		sys = SysGPS
		s += MinPRNGPS - 1
	default:
		s -= NSatGPS
		switch {
		case s <= NSatGLO:
			sys = SysGLO
			s += MinPRNGLO - 1
		default:
			s -= NSatGLO
			switch {
			case s <= NSatGAL:
				sys = SysGAL
				s += MinPRNGAL - 1
			default:
				s -= NSatGAL
				switch {
				case s <= NSatQZS:
					sys = SysQZS
					s += MinPRNQZS - 1
				default:
					s -= NSatQZS
					switch {
					case s <= NSatCMP:
						sys = SysCMP
						s += MinPRNCMP - 1
					default:
						s -= NSatCMP
						switch {
						case s <= NSatIRN:
							sys = SysIRN
							s += MinPRNIRN - 1
						default:
							s -= NSatIRN
							if s <= NSatSBS {
								sys = SysSBS
								s += MinPRNSBS - 1
							} else {
								s = 0
							}
						}
					}
				}
			}
		}
	}
	if prn != nil {
		*prn = s
	}
	return sys
}

// SatNo2Id formats sat as an RINEX-style id (Gnn, Rnn, Enn, Jnn, Cnn,
// Inn or nnn for SBAS).
func SatNo2Id(sat int) string {
	var prn int
	switch SatSys(sat, &prn) {
	case SysGPS:
		return fmt.Sprintf("G%02d", prn-MinPRNGPS+1)
	case SysGLO:
		return fmt.Sprintf("R%02d", prn-MinPRNGLO+1)
	case SysGAL:
		return fmt.Sprintf("E%02d", prn-MinPRNGAL+1)
	case SysQZS:
		return fmt.Sprintf("J%02d", prn-MinPRNQZS+1)
	case SysCMP:
		return fmt.Sprintf("C%02d", prn-MinPRNCMP+1)
	case SysIRN:
		return fmt.Sprintf("I%02d", prn-MinPRNIRN+1)
	case SysSBS:
		return fmt.Sprintf("%03d", prn)
	}
	return ""
}

// SatExclude decides whether a satellite should be dropped from the
// residual assembler: unhealthy, administratively excluded, out of
// the enabled constellation set, or carrying excessive ephemeris
// variance.
func SatExclude(sat int, vari float64, svh int, opt *PrcOpt) bool {
	sys := SatSys(sat, nil)
	if svh < 0 {
		return true
	}
	if opt != nil {
		switch opt.ExSats[sat] {
		case 1:
			return true
		case 2:
			return false
		}
		if opt.NavSys != 0 && sys&opt.NavSys == 0 {
			return true
		}
	}
	if sys == SysQZS {
		svh &= 0xFE // mask QZSS LEX health bit
	}
	if svh != 0 {
		return true
	}
	const maxVarEph = 300.0 * 300.0
	return vari > maxVarEph
}
