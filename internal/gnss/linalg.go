package gnss

import "math"

// SQR squares x; used throughout the variance models for readability
// against the reference formulas.
func SQR(x float64) float64 { return x * x }

// Dot returns the inner product of the first n elements of a and b.
func Dot(a, b []float64, n int) float64 {
	c := 0.0
	for i := 0; i < n; i++ {
		c += a[i] * b[i]
	}
	return c
}

// Norm returns the Euclidean norm of the first n elements of a.
func Norm(a []float64, n int) float64 {
	return math.Sqrt(Dot(a, a, n))
}

// MatMul computes C = alpha*A*B + beta*C with column-major (Fortran
// order) storage and optional transposition flags ("NN","NT","TN","TT"),
// mirroring the reference BLAS-lite wrapper.
func MatMul(tr string, n, k, m int, alpha float64, A, B []float64, beta float64, C []float64) {
	var f int
	switch tr {
	case "NN":
		f = 1
	case "NT":
		f = 2
	case "TN":
		f = 3
	default:
		f = 4
	}
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			d := 0.0
			switch f {
			case 1:
				for x := 0; x < m; x++ {
					d += A[i+x*n] * B[x+j*m]
				}
			case 2:
				for x := 0; x < m; x++ {
					d += A[i+x*n] * B[j+x*k]
				}
			case 3:
				for x := 0; x < m; x++ {
					d += A[x+i*m] * B[x+j*m]
				}
			case 4:
				for x := 0; x < m; x++ {
					d += A[x+i*m] * B[j+x*k]
				}
			}
			if beta == 0.0 {
				C[i+j*n] = alpha * d
			} else {
				C[i+j*n] = alpha*d + beta*C[i+j*n]
			}
		}
	}
}

// luDecompose performs in-place LU decomposition with partial
// pivoting. Returns -1 if A is singular.
func luDecompose(A []float64, n int, indx []int) int {
	vv := make([]float64, n)
	for i := 0; i < n; i++ {
		big := 0.0
		for j := 0; j < n; j++ {
			if v := math.Abs(A[i+j*n]); v > big {
				big = v
			}
		}
		if big == 0.0 {
			return -1
		}
		vv[i] = 1.0 / big
	}
	for j := 0; j < n; j++ {
		for i := 0; i < j; i++ {
			s := A[i+j*n]
			for k := 0; k < i; k++ {
				s -= A[i+k*n] * A[k+j*n]
			}
			A[i+j*n] = s
		}
		big, imax := 0.0, j
		for i := j; i < n; i++ {
			s := A[i+j*n]
			for k := 0; k < j; k++ {
				s -= A[i+k*n] * A[k+j*n]
			}
			A[i+j*n] = s
			if tmp := vv[i] * math.Abs(s); tmp >= big {
				big, imax = tmp, i
			}
		}
		if j != imax {
			for k := 0; k < n; k++ {
				A[imax+k*n], A[j+k*n] = A[j+k*n], A[imax+k*n]
			}
			vv[imax] = vv[j]
		}
		indx[j] = imax
		if A[j+j*n] == 0.0 {
			return -1
		}
		if j != n-1 {
			tmp := 1.0 / A[j+j*n]
			for i := j + 1; i < n; i++ {
				A[i+j*n] *= tmp
			}
		}
	}
	return 0
}

func luBacksub(A []float64, n int, indx []int, b []float64) {
	ii := -1
	for i := 0; i < n; i++ {
		ip := indx[i]
		s := b[ip]
		b[ip] = b[i]
		if ii >= 0 {
			for j := ii; j < i; j++ {
				s -= A[i+j*n] * b[j]
			}
		} else if s != 0.0 {
			ii = i
		}
		b[i] = s
	}
	for i := n - 1; i >= 0; i-- {
		s := b[i]
		for j := i + 1; j < n; j++ {
			s -= A[i+j*n] * b[j]
		}
		b[i] = s / A[i+i*n]
	}
}

// MatInv inverts the n x n matrix A in place. Returns non-zero on
// singularity.
func MatInv(A []float64, n int) int {
	indx := make([]int, n)
	B := make([]float64, n*n)
	copy(B, A)
	if luDecompose(B, n, indx) != 0 {
		return -1
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			A[i+j*n] = 0.0
		}
		A[j+j*n] = 1.0
		luBacksub(B, n, indx, A[j*n:])
	}
	return 0
}

// LSQ solves the weighted normal equations x = (A*A')^-1 * A*y for a
// design matrix A stored transposed (n params x m rows), returning the
// parameter covariance Q = (A*A')^-1 alongside x. info != 0 signals a
// singular normal matrix.
func LSQ(A, y []float64, n, m int, x, Q []float64) int {
	if m < n {
		return -1
	}
	Ay := make([]float64, n)
	MatMul("NN", n, 1, m, 1.0, A, y, 0.0, Ay)
	MatMul("NT", n, n, m, 1.0, A, A, 0.0, Q)
	if info := MatInv(Q, n); info != 0 {
		return info
	}
	MatMul("NN", n, 1, n, 1.0, Q, Ay, 0.0, x)
	return 0
}

// chisqr is the one-sided chi-square critical-value table at
// alpha=0.001, indexed by degrees of freedom minus one. It must match
// the reference receiver's table exactly: ValSol's rejection boundary
// is validated against it.
var chisqr = [100]float64{
	10.8, 13.8, 16.3, 18.5, 20.5, 22.5, 24.3, 26.1, 27.9, 29.6,
	31.3, 32.9, 34.5, 36.1, 37.7, 39.3, 40.8, 42.3, 43.8, 45.3,
	46.8, 48.3, 49.7, 51.2, 52.6, 54.1, 55.5, 56.9, 58.3, 59.7,
	61.1, 62.5, 63.9, 65.2, 66.6, 68.0, 69.3, 70.7, 72.1, 73.4,
	74.7, 76.0, 77.3, 78.6, 80.0, 81.3, 82.6, 84.0, 85.4, 86.7,
	88.0, 89.3, 90.6, 91.9, 93.3, 94.7, 96.0, 97.4, 98.7, 100,
	101, 102, 103, 104, 105, 107, 108, 109, 110, 112,
	113, 114, 115, 116, 118, 119, 120, 122, 123, 125,
	126, 127, 128, 129, 131, 132, 133, 134, 135, 137,
	138, 139, 140, 142, 143, 144, 145, 147, 148, 149,
}
