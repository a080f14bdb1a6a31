package gnss

import (
	"fmt"
	"math"
)

// EstPos runs Gauss-Newton iteration on the nonlinear pseudorange
// model, seeded from sol.Rr, until the step norm converges below
// PosConverge or MaxIter is exhausted. On convergence it commits
// position, clock biases and covariance to sol and validates the
// result with ValSol. Returns ok=false with a diagnostic message on
// insufficient satellites, a singular normal matrix, or divergence.
func EstPos(obs []Obs, rs, dts, vare []float64, svh []int, nav *Nav, opt *PrcOpt,
	sol *Sol, azel []float64, vsat []int, resp []float64) (ok bool, msg string) {

	n := len(obs)
	var x, dx [NX]float64
	var Q [NX * NX]float64
	v := make([]float64, n+NX)
	H := make([]float64, NX*(n+NX))
	vr := make([]float64, n+NX)

	for i := 0; i < 3; i++ {
		x[i] = sol.Rr[i]
	}

	iter := 0
	for ; iter < MaxIter; iter++ {
		nv, ns := ResCode(iter, obs, rs, dts, vare, svh, nav, x[:], opt, v, H, vr, azel, vsat, resp)
		if nv < NX {
			return false, fmt.Sprintf("lack of valid sats ns=%d", nv)
		}

		for j := 0; j < nv; j++ {
			sig := math.Sqrt(vr[j])
			v[j] /= sig
			for k := 0; k < NX; k++ {
				H[k+j*NX] /= sig
			}
		}

		if info := LSQ(H, v, NX, nv, dx[:], Q[:]); info != 0 {
			return false, fmt.Sprintf("lsq error info=%d", info)
		}
		for j := 0; j < NX; j++ {
			x[j] += dx[j]
		}

		if Norm(dx[:], NX) < PosConverge {
			sol.Time = TimeAdd(obs[0].Time, -x[3]/CLight)
			sol.Dtr[0] = x[3] / CLight
			sol.Dtr[1] = x[4] / CLight
			sol.Dtr[2] = x[5] / CLight
			sol.Dtr[3] = x[6] / CLight
			sol.Dtr[4] = x[7] / CLight
			for j := 0; j < 6; j++ {
				sol.Rr[j] = 0.0
				if j < 3 {
					sol.Rr[j] = x[j]
				}
			}
			sol.Qr[0] = Q[0]
			sol.Qr[1] = Q[1+NX]
			sol.Qr[2] = Q[2+2*NX]
			sol.Qr[3] = Q[1] // cov xy
			sol.Qr[4] = Q[2+NX] // cov yz
			sol.Qr[5] = Q[2] // cov zx
			sol.Ns = ns
			sol.Age, sol.Ratio = 0.0, 0.0

			valid, vmsg := ValSol(azel, vsat, opt, v, nv, NX)
			if valid {
				sol.Stat = SolQSingle
				if opt.SatEph == EphOptSBAS {
					sol.Stat = SolQSBAS
				}
				return true, ""
			}
			return false, vmsg
		}
	}
	return false, fmt.Sprintf("iteration divergent i=%d", iter)
}
