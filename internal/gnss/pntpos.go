package gnss

// PntPos is the single-point-positioning entry point: it evaluates
// satellite states for the epoch's observations, estimates position
// and clock biases by weighted Gauss-Newton, falls back to RAIM-FDE
// when that estimate fails outright, and always runs the Doppler
// velocity estimator regardless of the position outcome. ssat, if
// non-nil, receives the per-satellite status for every observation
// (including those that never reach the residual assembler).
func PntPos(obs []Obs, nav *Nav, opt *PrcOpt, sol *Sol, ssat []SSat) (ok bool, msg string) {
	n := len(obs)
	if n <= 0 {
		sol.Stat = SolQNone
		return false, "no observation data"
	}
	optd := *opt
	if optd.MaxGdop == 0.0 {
		def := DefaultProcOpt()
		optd.MaxGdop = def.MaxGdop
	}

	rs := make([]float64, 6*n)
	dts := make([]float64, 2*n)
	vare := make([]float64, n)
	svh := make([]int, n)
	azel := make([]float64, 2*n)
	vsat := make([]int, n)
	resp := make([]float64, n)

	nav.SatPoss(obs[0].Time, obs, rs, dts, vare, svh)

	ok, msg = EstPos(obs, rs, dts, vare, svh, nav, &optd, sol, azel, vsat, resp)

	if !ok && n >= 6 && optd.PosOpt[4] {
		if rok, rmsg := RaimFde(obs, rs, dts, vare, svh, nav, &optd, sol, azel, vsat, resp); rok {
			ok, msg = true, rmsg
		} else if rmsg != "" {
			msg = rmsg
		}
	}

	EstVel(obs, rs, dts, nav, &optd, sol, azel, vsat)

	if ssat != nil {
		for i := 0; i < MaxSat && i < len(ssat); i++ {
			ssat[i].Vs = 0
			ssat[i].Azel[0], ssat[i].Azel[1] = 0.0, 0.0
			ssat[i].Resp = 0.0
			ssat[i].Snr = 0
		}
		for i := 0; i < n; i++ {
			sat := obs[i].Sat
			if sat-1 < 0 || sat-1 >= len(ssat) {
				continue
			}
			ssat[sat-1].Azel[0], ssat[sat-1].Azel[1] = azel[2*i], azel[1+2*i]
			ssat[sat-1].Snr = obs[i].SNR[0]
			if vsat[i] == 0 {
				continue
			}
			ssat[sat-1].Vs = 1
			ssat[sat-1].Resp = resp[i]
		}
	}

	if ok {
		sol.Stat = SolQSingle
		if optd.SatEph == EphOptSBAS {
			sol.Stat = SolQSBAS
		}
	} else {
		sol.Stat = SolQNone
	}
	return ok, msg
}
