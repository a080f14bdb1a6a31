package gnss

import "math"

// IonModel evaluates the GPS broadcast (Klobuchar) ionospheric delay
// at L1 for receiver position pos and satellite azel, given the 8
// broadcast coefficients in ion.
func IonModel(t Gtime, ion, pos, azel []float64) float64 {
	ionDefault := []float64{ // 2004/1/1 default, used when broadcast coeffs are all zero
		0.1118e-07, -0.7451e-08, -0.5961e-07, 0.1192e-06,
		0.1167e+06, -0.2294e+06, -0.1311e+06, 0.1049e+07,
	}
	if pos[2] < -1e3 || azel[1] <= 0 {
		return 0.0
	}
	if Norm(ion, 8) <= 0.0 {
		ion = ionDefault
	}

	psi := 0.0137/(azel[1]/Pi+0.11) - 0.022

	phi := pos[0]/Pi + psi*math.Cos(azel[0])
	if phi > 0.416 {
		phi = 0.416
	} else if phi < -0.416 {
		phi = -0.416
	}
	lam := pos[1]/Pi + psi*math.Sin(azel[0])/math.Cos(phi*Pi)
	phi += 0.064 * math.Cos((lam-1.617)*Pi)

	tt := 43200.0*lam + time2gpst(t)
	tt -= math.Floor(tt/86400.0) * 86400.0

	f := 1.0 + 16.0*math.Pow(0.53-azel[1]/Pi, 3.0)

	amp := ion[0] + phi*(ion[1]+phi*(ion[2]+phi*ion[3]))
	per := ion[4] + phi*(ion[5]+phi*(ion[6]+phi*ion[7]))
	if amp < 0.0 {
		amp = 0.0
	}
	if per < 72000.0 {
		per = 72000.0
	}
	x := 2.0 * Pi * (tt - 50400.0) / per
	if math.Abs(x) < 1.57 {
		return CLight * f * (5e-9 + amp*(1.0+x*x*(-0.5+x*x/24.0)))
	}
	return CLight * f * 5e-9
}

func time2gpst(t Gtime) float64 {
	const secPerWeek = 86400.0 * 7.0
	sec := float64(t.Time) + t.Sec
	week := math.Floor(sec / secPerWeek)
	return sec - week*secPerWeek
}

// TropModel evaluates the Saastamoinen dry+wet tropospheric delay at
// receiver position pos and satellite elevation azel[1], given a
// constant relative humidity humi.
func TropModel(pos, azel []float64, humi float64) float64 {
	const temp0 = 15.0
	if pos[2] < -100.0 || pos[2] > 1e4 || azel[1] <= 0 {
		return 0.0
	}
	hgt := pos[2]
	if hgt < 0.0 {
		hgt = 0.0
	}
	pres := 1013.25 * math.Pow(1.0-2.2557e-5*hgt, 5.2568)
	temp := temp0 - 6.5e-3*hgt + 273.16
	e := 6.108 * humi * math.Exp((17.15*temp-4684.0)/(temp-38.45))

	z := Pi/2.0 - azel[1]
	trph := 0.0022768 * pres / (1.0 - 0.00266*math.Cos(2.0*pos[0]) - 0.00028*hgt/1e3) / math.Cos(z)
	trpw := 0.002277 * (1255.0/temp + 0.05) * e / math.Cos(z)
	return trph + trpw
}

// SbsIonCorr evaluates the SBAS (MOPS) ionospheric grid correction.
// The reference receiver interpolates a broadcast TEC grid; absent
// live SBAS grid data this falls back to the Klobuchar model so the
// option still yields a usable (if coarser) correction rather than
// silently dropping every satellite.
func SbsIonCorr(t Gtime, nav *Nav, pos, azel []float64) (ion, vari float64) {
	ion = IonModel(t, nav.IonGPS[:], pos, azel)
	vari = SQR(ion * ErrBrdcI)
	return
}

// SbsTropCorr evaluates the SBAS MOPS troposphere model, a fixed
// mid-latitude standard-atmosphere table. This uses the same
// Saastamoinen closed form with the MOPS reference humidity in place
// of the five-parameter seasonal table, documented as a simplification.
func SbsTropCorr(pos, azel []float64) (trp, vari float64) {
	trp = TropModel(pos, azel, 0.5)
	vari = SQR(0.12 / (math.Sin(azel[1]) + 0.1))
	return
}

// IonTec evaluates the IONEX TEC-map ionospheric correction. Without
// a loaded TEC map this degrades to the broadcast model with the
// wider IONEX-specific variance the reference receiver assigns when
// no grid point brackets the pierce point.
func IonTec(t Gtime, nav *Nav, pos, azel []float64) (ion, vari float64, ok bool) {
	ion = IonModel(t, nav.IonGPS[:], pos, azel)
	vari = SQR(ion*ErrBrdcI) + 4.0
	return ion, vari, true
}
