package gnss

import "fmt"

// ValSol runs the two solution-acceptance gates: a chi-square
// consistency check on the weighted residual norm, and a GDOP bound
// on the satellites that contributed. Returns ok=false and a
// diagnostic message on either failure.
func ValSol(azel []float64, vsat []int, opt *PrcOpt, v []float64, nv, nx int) (ok bool, msg string) {
	vv := Dot(v, v, nv)
	if nv > nx && vv > chisqr[nv-nx-1] {
		return false, fmt.Sprintf("chi-square error nv=%d vv=%.1f cs=%.1f", nv, vv, chisqr[nv-nx-1])
	}

	azels := make([]float64, 0, len(vsat)*2)
	for i := range vsat {
		if vsat[i] == 0 {
			continue
		}
		azels = append(azels, azel[i*2], azel[1+i*2])
	}
	var dop [4]float64
	DOPs(len(azels)/2, azels, opt.Elmin, dop[:])
	if dop[0] <= 0.0 || dop[0] > opt.MaxGdop {
		return false, fmt.Sprintf("gdop error nv=%d gdop=%.1f", nv, dop[0])
	}
	return true, ""
}
