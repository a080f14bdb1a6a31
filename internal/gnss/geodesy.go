package gnss

import "math"

// Ecef2Pos converts an ECEF position to geodetic {lat,lon,h} (WGS84)
// by Bowring's iteration.
func Ecef2Pos(r []float64, pos []float64) {
	e2 := FeWGS84 * (2.0 - FeWGS84)
	r2 := Dot(r, r, 2)
	v := ReWGS84
	z, zk := r[2], 0.0
	for math.Abs(z-zk) >= 1e-4 {
		zk = z
		sinp := z / math.Sqrt(r2+z*z)
		v = ReWGS84 / math.Sqrt(1.0-e2*sinp*sinp)
		z = r[2] + v*e2*sinp
	}
	switch {
	case r2 > 1e-12:
		pos[0] = math.Atan(z / math.Sqrt(r2))
	case r[2] > 0.0:
		pos[0] = Pi / 2.0
	default:
		pos[0] = -Pi / 2.0
	}
	if r2 > 1e-12 {
		pos[1] = math.Atan2(r[1], r[0])
	} else {
		pos[1] = 0.0
	}
	pos[2] = math.Sqrt(r2+z*z) - v
}

// Pos2Ecef converts geodetic {lat,lon,h} to ECEF (WGS84), the inverse
// of Ecef2Pos.
func Pos2Ecef(pos []float64, r []float64) {
	sinp, cosp := math.Sin(pos[0]), math.Cos(pos[0])
	sinl, cosl := math.Sin(pos[1]), math.Cos(pos[1])
	e2 := FeWGS84 * (2.0 - FeWGS84)
	v := ReWGS84 / math.Sqrt(1.0-e2*sinp*sinp)
	r[0] = (v + pos[2]) * cosp * cosl
	r[1] = (v + pos[2]) * cosp * sinl
	r[2] = (v*(1.0-e2) + pos[2]) * sinp
}

// XYZ2Enu fills the 3x3 ECEF->local-ENU rotation at geodetic {lat,lon}.
func XYZ2Enu(pos []float64, E []float64) {
	sinp, cosp := math.Sin(pos[0]), math.Cos(pos[0])
	sinl, cosl := math.Sin(pos[1]), math.Cos(pos[1])
	E[0], E[3], E[6] = -sinl, cosl, 0.0
	E[1], E[4], E[7] = -sinp*cosl, -sinp*sinl, cosp
	E[2], E[5], E[8] = cosp*cosl, cosp*sinl, sinp
}

// Ecef2Enu rotates an ECEF vector into local ENU at geodetic pos.
func Ecef2Enu(pos, r, e []float64) {
	var E [9]float64
	XYZ2Enu(pos, E[:])
	MatMul("NN", 3, 1, 3, 1.0, E[:], r, 0.0, e)
}

// GeoDist returns the geometric range from satellite position rs to
// receiver position rr, writes the receiver->satellite unit
// line-of-sight vector e, and folds in the Sagnac correction for
// signal travel time during Earth rotation. Returns a negative value
// if rs looks degenerate (e.g. all zero).
func GeoDist(rs, rr, e []float64) float64 {
	if Norm(rs, 3) < ReWGS84 {
		return -1.0
	}
	for i := 0; i < 3; i++ {
		e[i] = rs[i] - rr[i]
	}
	r := Norm(e, 3)
	for i := 0; i < 3; i++ {
		e[i] /= r
	}
	return r + OmegaE*(rs[0]*rr[1]-rs[1]*rr[0])/CLight
}

// SatAzel computes satellite azimuth/elevation at geodetic receiver
// position pos, given the ECEF line-of-sight e, and returns elevation.
func SatAzel(pos, e, azel []float64) float64 {
	az, el := 0.0, Pi/2.0
	if pos[2] > -ReWGS84 {
		var enu [3]float64
		Ecef2Enu(pos, e, enu[:])
		if Dot(enu[:], enu[:], 2) >= 1e-12 {
			az = math.Atan2(enu[0], enu[1])
		}
		if az < 0.0 {
			az += 2 * Pi
		}
		el = math.Asin(enu[2])
	}
	if azel != nil {
		azel[0], azel[1] = az, el
	}
	return el
}

// DOPs computes {GDOP,PDOP,HDOP,VDOP} from the azimuth/elevation of
// ns satellites above elmin.
func DOPs(ns int, azel []float64, elmin float64, dop []float64) {
	H := make([]float64, 4*ns)
	var Q [16]float64
	n := 0
	for i := 0; i < ns; i++ {
		if azel[1+i*2] < elmin || azel[1+i*2] <= 0.0 {
			continue
		}
		cosel, sinel := math.Cos(azel[1+i*2]), math.Sin(azel[1+i*2])
		H[4*n] = cosel * math.Sin(azel[i*2])
		H[1+4*n] = cosel * math.Cos(azel[i*2])
		H[2+4*n] = sinel
		H[3+4*n] = 1.0
		n++
	}
	for i := range dop {
		dop[i] = 0.0
	}
	if n < 4 {
		return
	}
	MatMul("NT", 4, 4, n, 1.0, H[:4*n], H[:4*n], 0.0, Q[:])
	if MatInv(Q[:], 4) == 0 {
		dop[0] = math.Sqrt(math.Abs(Q[0] + Q[5] + Q[10] + Q[15]))
		dop[1] = math.Sqrt(math.Abs(Q[0] + Q[5] + Q[10]))
		dop[2] = math.Sqrt(math.Abs(Q[0] + Q[5]))
		dop[3] = math.Sqrt(math.Abs(Q[10]))
	}
}
