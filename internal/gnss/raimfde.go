package gnss

import "math"

// RaimFde performs leave-one-satellite-out fault detection and
// exclusion after EstPos has failed. For each candidate exclusion it
// re-runs EstPos on the remaining n-1 observations and, among the
// candidates that converge with at least 5 contributing satellites,
// keeps the one with the lowest post-fit RMS — strictly better than
// the current best, so an equal-RMS candidate never displaces an
// earlier one (ties resolve in observation order).
func RaimFde(obs []Obs, rs, dts, vare []float64, svh []int, nav *Nav, opt *PrcOpt,
	sol *Sol, azel []float64, vsat []int, resp []float64) (ok bool, msg string) {

	n := len(obs)
	rms := RaimInitRMS
	excluded := -1
	var winner Sol
	var winnerAzel []float64
	var winnerVsat []int
	var winnerResp []float64
	var winnerMsg string

	for i := 0; i < n; i++ {
		obsE := make([]Obs, 0, n-1)
		rsE := make([]float64, 0, 6*(n-1))
		dtsE := make([]float64, 0, 2*(n-1))
		vareE := make([]float64, 0, n-1)
		svhE := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			obsE = append(obsE, obs[j])
			rsE = append(rsE, rs[6*j:6*j+6]...)
			dtsE = append(dtsE, dts[2*j:2*j+2]...)
			vareE = append(vareE, vare[j])
			svhE = append(svhE, svh[j])
		}

		var solE Sol
		azelE := make([]float64, 2*(n-1))
		vsatE := make([]int, n-1)
		respE := make([]float64, n-1)

		okE, msgE := EstPos(obsE, rsE, dtsE, vareE, svhE, nav, opt, &solE, azelE, vsatE, respE)
		if !okE {
			continue
		}

		nvsat, rmsE := 0, 0.0
		for j := 0; j < n-1; j++ {
			if vsatE[j] == 0 {
				continue
			}
			rmsE += SQR(respE[j])
			nvsat++
		}
		if nvsat < 5 {
			continue
		}
		rmsE = math.Sqrt(rmsE / float64(nvsat))

		if rmsE >= rms {
			continue
		}

		winner = solE
		winnerAzel = append([]float64(nil), azelE...)
		winnerVsat = append([]int(nil), vsatE...)
		winnerResp = append([]float64(nil), respE...)
		winnerMsg = msgE
		rms = rmsE
		excluded = i
	}

	if excluded < 0 {
		return false, msg
	}

	k := 0
	for j := 0; j < n; j++ {
		if j == excluded {
			continue
		}
		azel[2*j], azel[2*j+1] = winnerAzel[2*k], winnerAzel[2*k+1]
		vsat[j] = winnerVsat[k]
		resp[j] = winnerResp[k]
		k++
	}
	vsat[excluded] = 0
	*sol = winner
	return true, winnerMsg
}
