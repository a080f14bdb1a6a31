package gnss

import "math"

// sysOffsetColumn maps a constellation to its inter-system clock
// column in the state vector (3 is the receiver clock shared by
// GPS/SBAS/QZS); 0 means "no offset column, uses column 3 only".
func sysOffsetColumn(sys int) int {
	switch sys {
	case SysGLO:
		return 4
	case SysGAL:
		return 5
	case SysCMP:
		return 6
	case SysIRN:
		return 7
	}
	return 0
}

// ResCode builds the pseudorange residual vector v, the (NX x nv)
// design matrix H (column-major) and the per-row variance slice vr,
// gating each observation on duplication, exclusion, elevation, SNR,
// atmosphere-model availability and frequency availability. Returns
// the row count nv (including the inter-system pseudo-observations
// appended at the end) and writes the real-satellite count to ns.
func ResCode(iter int, obs []Obs, rs, dts, vare []float64, svh []int, nav *Nav, x []float64,
	opt *PrcOpt, v, H, vr, azel []float64, vsat []int, resp []float64) (nv, ns int) {

	var rr, pos, e [3]float64
	for i := 0; i < 3; i++ {
		rr[i] = x[i]
	}
	dtr := x[3]
	Ecef2Pos(rr[:], pos[:])

	var seen [NX - 3]bool
	n := len(obs)

	for i := 0; i < n; i++ {
		vsat[i] = 0
		azel[i*2], azel[1+i*2], resp[i] = 0.0, 0.0, 0.0
		sat := obs[i].Sat
		sys := SatSys(sat, nil)
		if sys == SysNone {
			continue
		}
		if i < n-1 && sat == obs[i+1].Sat {
			i++
			continue
		}
		if SatExclude(sat, vare[i], svh[i], opt) {
			continue
		}

		r := GeoDist(rs[i*6:], rr[:], e[:])
		if r <= 0.0 {
			continue
		}

		var dion, dtrp, vmeas, vion, vtrp float64
		if iter > 0 {
			if SatAzel(pos[:], e[:], azel[i*2:]) < opt.Elmin {
				continue
			}
			if snrMasked(&obs[i], azel[i*2:], opt) {
				continue
			}
			var ok bool
			dion, vion, ok = IonoCorr(nav, obs[i].Time, pos[:], azel[i*2:], opt.IonoOpt)
			if !ok {
				continue
			}
			freq := nav.Sat2Freq(sat, obs[i].Code[0])
			if freq == 0.0 {
				continue
			}
			dion *= SQR(Freq1 / freq)
			vion *= SQR(Freq1 / freq)

			dtrp, vtrp, ok = TropCorr(pos[:], azel[i*2:], opt.TropOpt)
			if !ok {
				continue
			}
		}

		P := Prange(&obs[i], nav, opt, &vmeas)
		if P == 0.0 {
			continue
		}

		v[nv] = P - (r + dtr - CLight*dts[i*2] + dion + dtrp)

		for j := 0; j < NX; j++ {
			if j < 3 {
				H[j+nv*NX] = -e[j]
			} else if j == 3 {
				H[j+nv*NX] = 1.0
			} else {
				H[j+nv*NX] = 0.0
			}
		}
		if col := sysOffsetColumn(sys); col > 0 {
			v[nv] -= x[col]
			H[col+nv*NX] = 1.0
			seen[col-3] = true
		} else {
			seen[0] = true
		}

		vsat[i] = 1
		resp[i] = v[nv]
		ns++

		vr[nv] = VarErr(opt, azel[1+i*2], sys) + vare[i] + vmeas + vion + vtrp
		nv++
	}

	// pin every unseen inter-system clock offset to 0 so H keeps full
	// column rank even when a constellation contributes no satellite.
	for i := 0; i < NX-3; i++ {
		if seen[i] {
			continue
		}
		v[nv] = 0.0
		for j := 0; j < NX; j++ {
			H[j+nv*NX] = 0.0
			if j == i+3 {
				H[j+nv*NX] = 1.0
			}
		}
		vr[nv] = PseudoObsVar
		nv++
	}
	return nv, ns
}

// ResDop builds the range-rate residual vector v and (4 x nv) design
// matrix H for the Doppler velocity estimator, linearized about
// receiver position rr and velocity/clock-drift state x. Skips
// satellites with no Doppler, no known frequency, not contributing to
// the position solution, or a degenerate velocity vector.
func ResDop(obs []Obs, rs, dts []float64, nav *Nav, rr, x, azel []float64, vsat []int, errHz float64, v, H []float64) int {
	var pos [3]float64
	var E [9]float64
	Ecef2Pos(rr, pos[:])
	XYZ2Enu(pos[:], E[:])

	nv := 0
	for i := range obs {
		freq := nav.Sat2Freq(obs[i].Sat, obs[i].Code[0])
		if obs[i].D[0] == 0.0 || freq == 0.0 || vsat[i] == 0 || Norm(rs[3+i*6:], 3) <= 0.0 {
			continue
		}

		cosel := math.Cos(azel[1+i*2])
		a := [3]float64{
			math.Sin(azel[i*2]) * cosel,
			math.Cos(azel[i*2]) * cosel,
			math.Sin(azel[1+i*2]),
		}
		var e [3]float64
		MatMul("TN", 3, 1, 3, 1.0, E[:], a[:], 0.0, e[:])

		var vs [3]float64
		for j := 0; j < 3; j++ {
			vs[j] = rs[j+3+i*6] - x[j]
		}
		rate := Dot(vs[:], e[:], 3) + OmegaE/CLight*(
			rs[4+i*6]*rr[0]+rs[1+i*6]*x[0]-rs[3+i*6]*rr[1]-rs[i*6]*x[1])

		sig := 1.0
		if errHz > 0.0 {
			sig = errHz * CLight / freq
		}

		v[nv] = (-obs[i].D[0]*CLight/freq - (rate + x[3] - CLight*dts[1+i*2])) / sig

		for j := 0; j < 4; j++ {
			H[j+nv*4] = 1.0 / sig
			if j < 3 {
				H[j+nv*4] = -e[j] / sig
			}
		}
		nv++
	}
	return nv
}
