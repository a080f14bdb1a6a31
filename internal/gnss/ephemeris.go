package gnss

import "math"

const (
	rtolKepler   = 1e-13
	maxIterKepler = 30
)

// varURAEph turns a broadcast URA index into a variance (m^2); the
// reference table is piecewise so index 0 reads as accurate and the
// upper indices blow up quickly enough that SatExclude's 300 m
// ceiling rejects them.
func varURAEph(sva int) float64 {
	var uraEph = [16]float64{
		2.4, 3.4, 4.85, 6.85, 9.65, 13.65, 24.0, 48.0,
		96.0, 192.0, 384.0, 768.0, 1536.0, 3072.0, 6144.0, 0.0,
	}
	if sva < 0 || sva > 15 {
		return SQR(6144.0)
	}
	if sva == 15 {
		return SQR(8192.0)
	}
	return SQR(uraEph[sva])
}

// satPos evaluates a Keplerian broadcast ephemeris (GPS/GAL/CMP/QZS/
// IRN all share this closed form, up to the mu/omega constants) at
// time t, filling rs[0:3]=ECEF position, rs[3:6]=ECEF velocity by
// central difference, dts=clock bias and vari=position variance.
func satPos(t Gtime, eph *Eph, rs []float64, dts, vari *float64) {
	sys := SatSys(eph.Sat, nil)
	mu, omge := MuGPS, OmegaE
	switch sys {
	case SysGAL:
		mu, omge = MuGAL, OmegaEGAL
	case SysCMP:
		mu, omge = MuCMP, OmegaECMP
	}

	pos := func(tk float64) [3]float64 {
		M := eph.M0 + (math.Sqrt(mu/(eph.A*eph.A*eph.A))+eph.Deln)*tk
		E, Ek := M, 0.0
		for n := 0; math.Abs(E-Ek) > rtolKepler && n < maxIterKepler; n++ {
			Ek = E
			E -= (E - eph.E*math.Sin(E) - M) / (1.0 - eph.E*math.Cos(E))
		}
		sinE, cosE := math.Sin(E), math.Cos(E)
		u := math.Atan2(math.Sqrt(1.0-eph.E*eph.E)*sinE, cosE-eph.E) + eph.Omg
		r := eph.A * (1.0 - eph.E*cosE)
		i := eph.I0 + eph.Idot*tk
		sin2u, cos2u := math.Sin(2.0*u), math.Cos(2.0*u)
		u += eph.Cus*sin2u + eph.Cuc*cos2u
		r += eph.Crs*sin2u + eph.Crc*cos2u
		i += eph.Cis*sin2u + eph.Cic*cos2u
		x, y := r*math.Cos(u), r*math.Sin(u)
		cosi := math.Cos(i)
		O := eph.OMG0 + (eph.OMGd-omge)*tk - omge*eph.Toes
		sinO, cosO := math.Sin(O), math.Cos(O)
		return [3]float64{
			x*cosO - y*cosi*sinO,
			x*sinO + y*cosi*cosO,
			y * math.Sin(i),
		}
	}

	tk := TimeDiff(t, eph.Toe)
	p0 := pos(tk)
	const dt = 0.5
	pm, pp := pos(tk-dt), pos(tk+dt)
	for i := 0; i < 3; i++ {
		rs[i] = p0[i]
		rs[3+i] = (pp[i] - pm[i]) / (2 * dt)
	}

	tc := TimeDiff(t, eph.Toc)
	*dts = eph.F0 + eph.F1*tc + eph.F2*tc*tc
	M := eph.M0 + (math.Sqrt(mu/(eph.A*eph.A*eph.A))+eph.Deln)*tk
	E := M
	for n := 0; n < maxIterKepler; n++ {
		E -= (E - eph.E*math.Sin(E) - M) / (1.0 - eph.E*math.Cos(E))
	}
	*dts -= 2.0 * math.Sqrt(mu*eph.A) * eph.E * math.Sin(E) / SQR(CLight)
	*vari = varURAEph(eph.Sva)
}

// gephPos evaluates a GLONASS state-vector ephemeris by a short
// constant-acceleration extrapolation, rather than numerically
// integrating the full orbital perturbation model the reference
// receiver uses (Glorbit/4th-order Runge-Kutta): the broadcast epoch
// Toe is always close to the observation epoch in a single-point
// solve, so this is accurate to a few centimeters over the handful of
// seconds involved.
func gephPos(t Gtime, g *Geph, rs []float64, dts, vari *float64) {
	tk := TimeDiff(t, g.Toe)
	for i := 0; i < 3; i++ {
		rs[i] = g.Pos[i] + g.Vel[i]*tk + 0.5*g.Acc[i]*tk*tk
		rs[3+i] = g.Vel[i] + g.Acc[i]*tk
	}
	*dts = -g.Taun + g.Gamman*tk
	*vari = SQR(20.0)
}

// ephSel holds the selected navigation-message variant per
// constellation (GPS, GLO, GAL, QZS, CMP, IRN, SBS), for systems that
// broadcast more than one: GPS/QZS LNAV(0)/CNAV(1), Galileo
// I/NAV(0)/F/NAV(1). Zero (the default) picks LNAV/I-NAV.
var ephSel [7]int

func ephSelIndex(sys int) int {
	switch sys {
	case SysGPS:
		return 0
	case SysGLO:
		return 1
	case SysGAL:
		return 2
	case SysQZS:
		return 3
	case SysCMP:
		return 4
	case SysIRN:
		return 5
	case SysSBS:
		return 6
	}
	return -1
}

// SetSelEph pins the navigation-message variant used for sys.
func SetSelEph(sys, sel int) {
	if i := ephSelIndex(sys); i >= 0 {
		ephSel[i] = sel
	}
}

// GetSelEph returns the navigation-message variant selected for sys.
func GetSelEph(sys int) int {
	if i := ephSelIndex(sys); i >= 0 {
		return ephSel[i]
	}
	return 0
}

// GetTgd returns the group-delay term (m) for sat/dtype from the
// matching broadcast ephemeris, or 0 if none is loaded.
func (nav *Nav) GetTgd(sat, dtype int) float64 {
	if SatSys(sat, nil) == SysGLO {
		for i := range nav.Geph {
			if nav.Geph[i].Sat == sat {
				return -nav.Geph[i].DTaun * CLight
			}
		}
		return 0.0
	}
	for i := range nav.Ephs {
		if nav.Ephs[i].Sat == sat {
			if dtype < 0 || dtype >= len(nav.Ephs[i].Tgd) {
				return 0
			}
			return nav.Ephs[i].Tgd[dtype] * CLight
		}
	}
	return 0.0
}

// Sat2Freq returns the carrier frequency (Hz) a code was transmitted
// on, 0 if unknown. GLONASS frequencies shift per-satellite by the
// frequency-channel number (FCN); other constellations are fixed.
func (nav *Nav) Sat2Freq(sat int, code uint8) float64 {
	var prn int
	sys := SatSys(sat, &prn)
	switch sys {
	case SysGLO:
		fcn := -100
		for i := range nav.Geph {
			if nav.Geph[i].Sat == sat {
				fcn = nav.Geph[i].Frq
				break
			}
		}
		if fcn == -100 {
			if prn-1 >= 0 && prn-1 < len(nav.GloFcn) && nav.GloFcn[prn-1] > 0 {
				fcn = nav.GloFcn[prn-1] - 8
			} else {
				return 0.0
			}
		}
		if code == CodeL2C {
			return Freq2GLO + DFreq2GLO*float64(fcn)
		}
		return Freq1GLO + DFreq1GLO*float64(fcn)
	case SysCMP:
		if code == CodeL2I {
			return Freq1CMP
		}
		if code == CodeL7I {
			return Freq2CMP
		}
		return Freq1
	case SysIRN:
		return Freq5
	default: // GPS, GAL, QZS
		switch code {
		case CodeL2C:
			return Freq2
		case CodeL7I:
			return Freq7
		case CodeL5X, CodeL8X:
			return Freq5
		default:
			return Freq1
		}
	}
}

// SatPoss evaluates ECEF position/velocity, clock bias and position
// variance for every observation in obs, the external collaborator
// PntPos consumes before building residuals. The clock-drift slot
// dts[2i+1] is always written as 0.
func (nav *Nav) SatPoss(teph Gtime, obs []Obs, rs, dts, vari []float64, svh []int) {
	for i := range obs {
		svh[i] = 0
		sat := obs[i].Sat
		sys := SatSys(sat, nil)
		var dt float64
		if sys == SysGLO {
			ok := false
			for j := range nav.Geph {
				if nav.Geph[j].Sat == sat {
					gephPos(obs[i].Time, &nav.Geph[j], rs[i*6:], &dt, &vari[i])
					ok = true
					break
				}
			}
			if !ok {
				svh[i] = -1
				continue
			}
		} else {
			ok := false
			for j := range nav.Ephs {
				if nav.Ephs[j].Sat == sat {
					satPos(obs[i].Time, &nav.Ephs[j], rs[i*6:], &dt, &vari[i])
					ok = true
					break
				}
			}
			if !ok {
				svh[i] = -1
				continue
			}
		}
		dts[i*2] = dt
		dts[i*2+1] = 0.0
	}
}
