package gnss

import (
	"math"
	"testing"
)

// A small constellation of receiver-centric test satellites, spread in
// azimuth and elevation around a nominal receiver position to give a
// well conditioned GDOP; the Doppler tests assign every satellite the
// same velocity.
var testRecv = [3]float64{-2694892.5, -4297473.1, 3854731.8} // near 35N, 238E

func testSatPos(az, el, rangeM float64) (rs [3]float64) {
	var pos [3]float64
	Ecef2Pos(testRecv[:], pos[:])
	var E [9]float64
	XYZ2Enu(pos[:], E[:])
	cosel, sinel := math.Cos(el), math.Sin(el)
	enu := [3]float64{math.Sin(az) * cosel, math.Cos(az) * cosel, sinel}
	var ecefDir [3]float64
	MatMul("TN", 3, 1, 3, 1.0, E[:], enu[:], 0.0, ecefDir[:])
	for i := 0; i < 3; i++ {
		rs[i] = testRecv[i] + rangeM*ecefDir[i]
	}
	return rs
}

func makeEph(sat int) Eph {
	return Eph{Sat: sat, Sva: 0}
}

// buildObs constructs n satellites of system sys, evenly spaced in
// azimuth with elevations rising from 30 deg, with clean pseudoranges
// (geometric range plus the Sagnac term GeoDist applies) implying a
// receiver clock bias of dtrecv seconds and zero atmosphere.
func buildObs(n int, dtrecv float64, sys int, prnBase int) ([]Obs, []float64, []float64, []float64, []int, *Nav) {
	obs := make([]Obs, n)
	rs := make([]float64, 6*n)
	dts := make([]float64, 2*n)
	vare := make([]float64, n)
	svh := make([]int, n)
	nav := &Nav{}

	for i := 0; i < n; i++ {
		az := 2 * Pi * float64(i) / float64(n)
		el := (30.0 + 50.0*float64(i)/float64(n)) * D2R
		satPosECEF := testSatPos(az, el, 2.2e7)
		rs[6*i], rs[6*i+1], rs[6*i+2] = satPosECEF[0], satPosECEF[1], satPosECEF[2]

		var e [3]float64
		r := GeoDist(rs[6*i:], testRecv[:], e[:])

		sat := SatNo(sys, prnBase+i)
		obs[i] = Obs{Sat: sat, Code: [2]uint8{CodeL1C, CodeL2C}}
		obs[i].P[0] = r + CLight*dtrecv

		nav.Ephs = append(nav.Ephs, makeEph(sat))
		dts[2*i], dts[2*i+1] = 0.0, 0.0
		vare[i] = 0.1
		svh[i] = 0
	}
	return obs, rs, dts, vare, svh, nav
}

func defaultOpt() PrcOpt {
	opt := DefaultProcOpt()
	opt.IonoOpt = IonoOptOff
	opt.TropOpt = TropOptOff
	opt.Elmin = 5.0 * D2R
	return opt
}

func TestEstPosCleanGPSEpoch(t *testing.T) {
	obs, rs, dts, vare, svh, nav := buildObs(6, 1e-4, SysGPS, 1)
	opt := defaultOpt()

	azel := make([]float64, 2*len(obs))
	vsat := make([]int, len(obs))
	resp := make([]float64, len(obs))
	var sol Sol

	ok, msg := EstPos(obs, rs, dts, vare, svh, nav, &opt, &sol, azel, vsat, resp)
	if !ok {
		t.Fatalf("EstPos failed: %s", msg)
	}
	for i := 0; i < 3; i++ {
		if d := math.Abs(sol.Rr[i] - testRecv[i]); d > 1e-3 {
			t.Errorf("rr[%d] = %v, want %v (diff %v)", i, sol.Rr[i], testRecv[i], d)
		}
	}
	if d := math.Abs(sol.Dtr[0] - 1e-4); d > 1e-9 {
		t.Errorf("dtr[0] = %v, want 1e-4 (diff %v)", sol.Dtr[0], d)
	}
	if sol.Stat != SolQSingle {
		t.Errorf("stat = %d, want SolQSingle", sol.Stat)
	}
}

func TestEstPosMixedGPSGalileoPinsUnseenOffsets(t *testing.T) {
	obsG, rsG, dtsG, vareG, svhG, navG := buildObs(4, 2e-5, SysGPS, 1)
	obsE, rsE, dtsE, vareE, svhE, navE := buildObs(4, 2e-5, SysGAL, 1)

	// bias Galileo pseudoranges by the assumed GAL-GPS clock offset so
	// the joint solve has a real, nonzero column-5 (GAL) term to fit.
	const galOffset = 3e-5
	for i := range obsE {
		obsE[i].P[0] += CLight * galOffset
	}

	obs := append(append([]Obs{}, obsG...), obsE...)
	rs := append(append([]float64{}, rsG...), rsE...)
	dts := append(append([]float64{}, dtsG...), dtsE...)
	vare := append(append([]float64{}, vareG...), vareE...)
	svh := append(append([]int{}, svhG...), svhE...)
	nav := &Nav{Ephs: append(append([]Eph{}, navG.Ephs...), navE.Ephs...)}

	opt := defaultOpt()
	azel := make([]float64, 2*len(obs))
	vsat := make([]int, len(obs))
	resp := make([]float64, len(obs))
	var sol Sol

	ok, msg := EstPos(obs, rs, dts, vare, svh, nav, &opt, &sol, azel, vsat, resp)
	if !ok {
		t.Fatalf("EstPos failed: %s", msg)
	}
	if sol.Dtr[1] != 0.0 || sol.Dtr[3] != 0.0 || sol.Dtr[4] != 0.0 {
		t.Errorf("unseen offsets not pinned: dtr=%v", sol.Dtr)
	}
	if d := math.Abs(sol.Dtr[0] - 2e-5); d > 1e-8 {
		t.Errorf("dtr[0] = %v, want 2e-5", sol.Dtr[0])
	}
	if d := math.Abs(sol.Dtr[2] - galOffset); d > 1e-7 {
		t.Errorf("dtr[2] (GAL offset) = %v, want %v", sol.Dtr[2], galOffset)
	}
}

func TestRaimFdeExcludesBiasedSatellite(t *testing.T) {
	obs, rs, dts, vare, svh, nav := buildObs(7, 5e-5, SysGPS, 1)
	obs[6].P[0] += 150.0 // corrupt the 7th satellite

	opt := defaultOpt()
	opt.PosOpt[4] = true

	azel := make([]float64, 2*len(obs))
	vsat := make([]int, len(obs))
	resp := make([]float64, len(obs))
	var sol Sol

	ok, msg := EstPos(obs, rs, dts, vare, svh, nav, &opt, &sol, azel, vsat, resp)
	if ok {
		t.Fatalf("expected chi-square rejection with biased satellite, got success (msg=%q)", msg)
	}

	ok, _ = RaimFde(obs, rs, dts, vare, svh, nav, &opt, &sol, azel, vsat, resp)
	if !ok {
		t.Fatalf("RaimFde failed to rescue the solution")
	}
	if vsat[6] != 0 {
		t.Errorf("expected satellite 6 excluded, vsat=%v", vsat)
	}
	for i := 0; i < 3; i++ {
		if d := math.Abs(sol.Rr[i] - testRecv[i]); d > 1e-2 {
			t.Errorf("rr[%d] = %v, want %v (diff %v)", i, sol.Rr[i], testRecv[i], d)
		}
	}
}

func TestPntPosNoObservations(t *testing.T) {
	nav := &Nav{}
	opt := defaultOpt()
	var sol Sol
	ok, msg := PntPos(nil, nav, &opt, &sol, nil)
	if ok || msg != "no observation data" {
		t.Errorf("got ok=%v msg=%q, want ok=false msg=\"no observation data\"", ok, msg)
	}
	if sol.Stat != SolQNone {
		t.Errorf("stat = %d, want SolQNone", sol.Stat)
	}
}

func TestResCodeDropsDuplicateConsecutiveSat(t *testing.T) {
	obs, rs, dts, vare, svh, nav := buildObs(6, 0.0, SysGPS, 1)
	obs[2].Sat = obs[1].Sat // force a duplicate pair at index 1,2
	rs[2*6], rs[2*6+1], rs[2*6+2] = rs[1*6], rs[1*6+1], rs[1*6+2]

	var x [NX]float64
	x[0], x[1], x[2] = testRecv[0], testRecv[1], testRecv[2]

	opt := defaultOpt()
	v := make([]float64, len(obs)+NX)
	H := make([]float64, NX*(len(obs)+NX))
	vr := make([]float64, len(obs)+NX)
	azel := make([]float64, 2*len(obs))
	vsat := make([]int, len(obs))
	resp := make([]float64, len(obs))

	_, ns := ResCode(0, obs, rs, dts, vare, svh, nav, x[:], &opt, v, H, vr, azel, vsat, resp)
	if vsat[1] != 0 || vsat[2] != 0 {
		t.Errorf("duplicate pair not dropped: vsat[1]=%d vsat[2]=%d", vsat[1], vsat[2])
	}
	if ns != 4 {
		t.Errorf("ns = %d, want 4 (6 sats minus the dropped duplicate pair)", ns)
	}
}

func TestEstVelRecoversConstantVelocity(t *testing.T) {
	obs, rs, dts, vare, svh, nav := buildObs(6, 0.0, SysGPS, 1)
	opt := defaultOpt()

	azel := make([]float64, 2*len(obs))
	vsat := make([]int, len(obs))
	resp := make([]float64, len(obs))
	var sol Sol

	ok, msg := EstPos(obs, rs, dts, vare, svh, nav, &opt, &sol, azel, vsat, resp)
	if !ok {
		t.Fatalf("EstPos failed: %s", msg)
	}

	wantVel := [3]float64{10.0, 0.0, 0.0}
	satVel := [3]float64{0.0, 0.0, 1000.0}
	for i := range obs {
		var e [3]float64
		for k := 0; k < 3; k++ {
			e[k] = (rs[6*i+k] - testRecv[k])
		}
		r := Norm(e[:], 3)
		for k := 0; k < 3; k++ {
			e[k] /= r
		}
		freq := nav.Sat2Freq(obs[i].Sat, obs[i].Code[0])
		var rel [3]float64
		for k := 0; k < 3; k++ {
			rel[k] = satVel[k] - wantVel[k]
		}
		rate := Dot(rel[:], e[:], 3)
		obs[i].D[0] = -rate * freq / CLight
		rs[6*i+3], rs[6*i+4], rs[6*i+5] = satVel[0], satVel[1], satVel[2] // common satellite velocity
	}

	EstVel(obs, rs, dts, nav, &opt, &sol, azel, vsat)

	if d := math.Abs(sol.Rr[3] - 10.0); d > 1e-3 {
		t.Errorf("rr[3] (vx) = %v, want 10.0 (diff %v)", sol.Rr[3], d)
	}
	for i := 4; i < 6; i++ {
		if math.Abs(sol.Rr[i]) > 1e-3 {
			t.Errorf("rr[%d] = %v, want ~0", i, sol.Rr[i])
		}
	}
}

// TestEstVelThreadsDopplerWeightAcrossFrequencies builds a mixed
// GPS/Galileo, mixed L1/L5 constellation with one satellite's Doppler
// deliberately inconsistent with the others' common velocity, then
// runs EstVel twice: with opt.Err[4]=0 (unit weight on every row) and
// with opt.Err[4]=5.0 (sig = err[4]*CLight/freq in ResDop,
// residuals.go, which weights L1 and L5 rows differently). A uniform
// scale of all weights would not move the solution, so only the switch
// between unit and per-frequency weights separates the two runs; if
// EstVel instead hardcodes the weight argument, both runs ignore
// opt.Err[4] entirely and land on the identical solution, failing the
// inequality this test asserts.
func TestEstVelThreadsDopplerWeightAcrossFrequencies(t *testing.T) {
	obsG, rsG, dtsG, vareG, svhG, navG := buildObs(3, 0.0, SysGPS, 1)
	obsE, rsE, dtsE, vareE, svhE, navE := buildObs(2, 0.0, SysGAL, 1)
	obs5, rs5, dts5, vare5, svh5, nav5 := buildObs(1, 0.0, SysGPS, 10)
	obs5[0].Code[0] = CodeL5X

	obs := append(append(append([]Obs{}, obsG...), obsE...), obs5...)
	rs := append(append(append([]float64{}, rsG...), rsE...), rs5...)
	dts := append(append(append([]float64{}, dtsG...), dtsE...), dts5...)
	vare := append(append(append([]float64{}, vareG...), vareE...), vare5...)
	svh := append(append(append([]int{}, svhG...), svhE...), svh5...)
	nav := &Nav{Ephs: append(append(append([]Eph{}, navG.Ephs...), navE.Ephs...), nav5.Ephs...)}

	opt := defaultOpt()
	azel := make([]float64, 2*len(obs))
	vsat := make([]int, len(obs))
	resp := make([]float64, len(obs))
	var sol Sol

	ok, msg := EstPos(obs, rs, dts, vare, svh, nav, &opt, &sol, azel, vsat, resp)
	if !ok {
		t.Fatalf("EstPos failed: %s", msg)
	}

	wantVel := [3]float64{10.0, 0.0, 0.0}
	satVel := [3]float64{0.0, 0.0, 1000.0}
	for i := range obs {
		var e [3]float64
		for k := 0; k < 3; k++ {
			e[k] = rs[6*i+k] - testRecv[k]
		}
		r := Norm(e[:], 3)
		for k := 0; k < 3; k++ {
			e[k] /= r
		}
		freq := nav.Sat2Freq(obs[i].Sat, obs[i].Code[0])
		var rel [3]float64
		for k := 0; k < 3; k++ {
			rel[k] = satVel[k] - wantVel[k]
		}
		rate := Dot(rel[:], e[:], 3)
		obs[i].D[0] = -rate * freq / CLight
		rs[6*i+3], rs[6*i+4], rs[6*i+5] = satVel[0], satVel[1], satVel[2]
	}
	// corrupt the lone L5 satellite's Doppler, leaving every other
	// satellite exactly consistent with wantVel.
	last := len(obs) - 1
	obs[last].D[0] += 25.0

	opt.Err[4] = 0.0
	var solLowErr Sol
	solLowErr.Rr = sol.Rr
	EstVel(obs, rs, dts, nav, &opt, &solLowErr, azel, vsat)

	opt.Err[4] = 5.0
	var solHighErr Sol
	solHighErr.Rr = sol.Rr
	EstVel(obs, rs, dts, nav, &opt, &solHighErr, azel, vsat)

	diff := math.Abs(solLowErr.Rr[3] - solHighErr.Rr[3])
	if diff < 1e-4 {
		t.Errorf("velocity solutions under opt.Err[4]=0 and 5.0 are indistinguishable (diff=%v); "+
			"EstVel is not threading opt.Err[4] into the per-satellite Doppler weight", diff)
	}
}

func TestPrangeIFLCCancelsCommonBias(t *testing.T) {
	nav := &Nav{Ephs: []Eph{makeEph(1)}}
	opt := defaultOpt()
	opt.IonoOpt = IonoOptIFLC

	gamma := SQR(Freq1 / Freq2)
	const r = 2.3e7
	const bias = 17.3

	base := Obs{Sat: 1, Code: [2]uint8{CodeL1C, CodeL2C}}
	base.P[0] = r + bias
	base.P[1] = r + gamma*bias // the L2 share of a delay common to both signals is gamma times the L1 share, as for ionospheric delay

	var vari float64
	p1 := Prange(&base, nav, &opt, &vari)

	shifted := base
	const common = 41.0
	shifted.P[0] += common
	shifted.P[1] += gamma * common

	p2 := Prange(&shifted, nav, &opt, &vari)
	if d := math.Abs(p1 - p2); d > 1e-6 {
		t.Errorf("IFLC not invariant under common bias: p1=%v p2=%v diff=%v", p1, p2, d)
	}
}

// TestPrangeSelectsGalileoNavVariant exercises both single-frequency
// and IFLC Prange paths for a Galileo satellite under each navigation-
// message selection, confirming the I/NAV (BGD_E1E5b) and F/NAV
// (BGD_E1E5a) biases are picked up distinctly rather than the
// single-frequency path always using Tgd[0] and the IFLC path never
// subtracting BGD_E5aE5b.
func TestPrangeSelectsGalileoNavVariant(t *testing.T) {
	defer SetSelEph(SysGAL, GetSelEph(SysGAL)) // restore the package-level default

	sat := SatNo(SysGAL, 1)
	eph := makeEph(sat)
	eph.Tgd[0] = 3.1 // BGD_E1E5a
	eph.Tgd[1] = 4.7 // BGD_E1E5b
	nav := &Nav{Ephs: []Eph{eph}}
	opt := defaultOpt()

	obs := Obs{Sat: sat, Code: [2]uint8{CodeL1C, CodeL2C}}
	obs.P[0] = 2.3e7

	var vari float64

	SetSelEph(SysGAL, 0) // I/NAV
	pINav := Prange(&obs, nav, &opt, &vari)
	wantINav := obs.P[0] - CLight*eph.Tgd[1]
	if d := math.Abs(pINav - wantINav); d > 1e-6 {
		t.Errorf("I/NAV prange = %v, want %v (BGD_E1E5b)", pINav, wantINav)
	}

	SetSelEph(SysGAL, 1) // F/NAV
	pFNav := Prange(&obs, nav, &opt, &vari)
	wantFNav := obs.P[0] - CLight*eph.Tgd[0]
	if d := math.Abs(pFNav - wantFNav); d > 1e-6 {
		t.Errorf("F/NAV prange = %v, want %v (BGD_E1E5a)", pFNav, wantFNav)
	}
	if math.Abs(pINav-pFNav) < 1e-3 {
		t.Errorf("I/NAV and F/NAV prange did not diverge: pINav=%v pFNav=%v", pINav, pFNav)
	}

	opt.IonoOpt = IonoOptIFLC
	gamma := SQR(Freq1 / Freq7)
	obs.P[1] = obs.P[0] / gamma

	SetSelEph(SysGAL, 0) // I/NAV: no BGD_E5aE5b correction applied
	pIflcINav := Prange(&obs, nav, &opt, &vari)

	SetSelEph(SysGAL, 1) // F/NAV: subtracts BGD_E5aE5b from P2 first
	pIflcFNav := Prange(&obs, nav, &opt, &vari)

	wantIflcFNav := pIflcINav + (CLight*eph.Tgd[1]-CLight*eph.Tgd[0])/(1.0-gamma)
	if d := math.Abs(pIflcFNav - wantIflcFNav); d > 1e-6 {
		t.Errorf("F/NAV IFLC prange = %v, want %v", pIflcFNav, wantIflcFNav)
	}
	if math.Abs(pIflcINav-pIflcFNav) < 1e-3 {
		t.Errorf("IFLC I/NAV and F/NAV prange did not diverge: pIflcINav=%v pIflcFNav=%v", pIflcINav, pIflcFNav)
	}
}

func TestEcefPosRoundTrip(t *testing.T) {
	r := []float64{-2694892.5, -4297473.1, 3854731.8}
	var pos, r2 [3]float64
	Ecef2Pos(r, pos[:])
	Pos2Ecef(pos[:], r2[:])
	for i := 0; i < 3; i++ {
		if d := math.Abs(r[i] - r2[i]); d > 1e-6 {
			t.Errorf("round trip r[%d]=%v got %v diff %v", i, r[i], r2[i], d)
		}
	}
}

func TestValSolRejectsExcessiveGdop(t *testing.T) {
	opt := defaultOpt()
	opt.MaxGdop = 30.0
	azel := []float64{0, 80 * D2R, 0.1, 81 * D2R, 0.2, 82 * D2R, 0.3, 83 * D2R}
	vsat := []int{1, 1, 1, 1}
	v := make([]float64, NX)
	ok, msg := ValSol(azel, vsat, &opt, v, NX, NX)
	if ok {
		t.Errorf("expected rejection on insufficient satellite diversity, got ok (msg=%q)", msg)
	}
}
