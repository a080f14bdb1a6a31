package gnss

// EstVel runs Gauss-Newton iteration on the linearized range-rate
// model to recover receiver velocity and clock drift from Doppler
// observations. It is independent of position-estimation success: it
// only requires rr (the position estimate, however obtained) and the
// per-satellite vsat/azel state already populated by ResCode. On
// convergence it writes velocity into sol.Rr[3:6] and the velocity
// covariance diagonal/cross-terms into sol.Qv[0:6]; on failure sol is
// left untouched.
func EstVel(obs []Obs, rs, dts []float64, nav *Nav, opt *PrcOpt, sol *Sol, azel []float64, vsat []int) {
	var x, dx [4]float64
	var Q [16]float64
	n := len(obs)
	v := make([]float64, n)
	H := make([]float64, 4*n)

	for iter := 0; iter < MaxIter; iter++ {
		nv := ResDop(obs, rs, dts, nav, sol.Rr[:3], x[:], azel, vsat, opt.Err[4], v, H)
		if nv < 4 {
			return
		}
		if info := LSQ(H, v, 4, nv, dx[:], Q[:]); info != 0 {
			return
		}
		for i := 0; i < 4; i++ {
			x[i] += dx[i]
		}
		if Norm(dx[:], 4) < VelConverge {
			for i := 0; i < 3; i++ {
				sol.Rr[3+i] = x[i]
			}
			sol.Qv[0] = Q[0]
			sol.Qv[1] = Q[1+4]
			sol.Qv[2] = Q[2+2*4]
			sol.Qv[3] = Q[1]
			sol.Qv[4] = Q[2+4]
			sol.Qv[5] = Q[2]
			return
		}
	}
}
