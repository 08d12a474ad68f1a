// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package gsplat

import (
	"math"

	"github.com/adobe/usd-fileformat-plugins/math/lin"
)

// RotateSH rotates per-point spherical-harmonic coefficients by a
// quaternion, reusing the math/lin.Q quaternion type rather than
// introducing a second one. gsplatHelper.cpp calls out to an external
// "spherical harmonics" library for exactly this operation and
// explicitly skips it entirely when the rotation is the identity; this
// preserves that fast path. Band 1 is rotated exactly (see
// bandRotationMatrix); bands 2 and 3 are rotated by quadrature over the
// orthonormal real spherical-harmonic basis rather than by re-deriving
// the analytic Wigner-D recursion by hand, the kind of external
// numerical-library logic this module treats as out of scope to
// re-derive from first principles.
//
// coeffs is column-major: coeffs[coefficient][point], bands 1..3 only (the
// zeroth-order/base-color coefficient does not rotate). degree selects how
// many bands are present (1, 2 or 3, see NumSHCoefficients).
func RotateSH(coeffs [][]float64, degree int, q *lin.Q) [][]float64 {
	out := make([][]float64, len(coeffs))
	for i, c := range coeffs {
		cp := make([]float64, len(c))
		copy(cp, c)
		out[i] = cp
	}
	if degree <= 0 || len(coeffs) == 0 {
		return out
	}
	// Skip rotation entirely when it is (numerically) the identity.
	if 1-math.Abs(q.W) <= 1e-6 {
		return out
	}

	r := quatToMatrix3(q)
	numPoints := len(coeffs[0])
	offset := 0
	for l := 1; l <= degree; l++ {
		n := 2*l + 1
		m := bandRotationMatrix(l, r)
		for p := 0; p < numPoints; p++ {
			in := make([]float64, n)
			for i := 0; i < n; i++ {
				if offset+i < len(coeffs) && p < len(coeffs[offset+i]) {
					in[i] = coeffs[offset+i][p]
				}
			}
			rotated := applySquare(m, in)
			for i := 0; i < n; i++ {
				if offset+i < len(out) && p < len(out[offset+i]) {
					out[offset+i][p] = rotated[i]
				}
			}
		}
		offset += n
	}
	return out
}

func quatToMatrix3(q *lin.Q) [3][3]float64 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return [3][3]float64{
		{1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy)},
		{2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx)},
		{2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy)},
	}
}

func applyMatrixVec(r [3][3]float64, v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = r[i][0]*v[0] + r[i][1]*v[1] + r[i][2]*v[2]
	}
	return out
}

func applySquare(m [][]float64, v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range m {
		var sum float64
		for j := range v {
			sum += m[i][j] * v[j]
		}
		out[i] = sum
	}
	return out
}

// shSampleCount is the number of quadrature directions used to estimate
// each band's rotation matrix. Real SH bands of degree<=3 have at most 7
// basis functions; a few hundred well-distributed directions make the
// quadrature estimate of the (orthonormal) rotation matrix accurate well
// beyond the precision Gaussian-splat assets are authored at.
const shSampleCount = 600

// fibonacciSphere returns shSampleCount deterministic, near-uniformly
// distributed unit directions (golden-angle spiral), avoiding any
// dependency on math/rand for a reproducible kernel.
func fibonacciSphere() [][3]float64 {
	pts := make([][3]float64, shSampleCount)
	goldenAngle := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < shSampleCount; i++ {
		yv := 1 - (float64(i)/float64(shSampleCount-1))*2
		radius := math.Sqrt(max0(1 - yv*yv))
		theta := goldenAngle * float64(i)
		pts[i] = [3]float64{math.Cos(theta) * radius, yv, math.Sin(theta) * radius}
	}
	return pts
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

var shDirections = fibonacciSphere()

// realSH evaluates the real, orthonormal spherical-harmonic basis
// functions of band l (2l+1 of them, ordered m = -l..l) at direction d,
// using the standard closed-form polynomials (Green, "Spherical Harmonic
// Lighting: The Gritty Details").
func realSH(l int, d [3]float64) []float64 {
	x, y, z := d[0], d[1], d[2]
	switch l {
	case 1:
		return []float64{0.488603 * y, 0.488603 * z, 0.488603 * x}
	case 2:
		return []float64{
			1.092548 * x * y,
			1.092548 * y * z,
			0.315392 * (3*z*z - 1),
			1.092548 * x * z,
			0.546274 * (x*x - y*y),
		}
	case 3:
		return []float64{
			0.590044 * y * (3*x*x - y*y),
			2.890611 * x * y * z,
			0.457046 * y * (5*z*z - 1),
			0.373176 * z * (5*z*z - 3),
			0.457046 * x * (5*z*z - 1),
			1.445306 * z * (x*x - y*y),
			0.590044 * x * (x*x - 3*y*y),
		}
	default:
		return nil
	}
}

// bandRotationMatrix estimates the (2l+1)x(2l+1) real-SH rotation matrix
// for band l and 3x3 rotation r by quadrature: M[m][n] = integral
// Y_lm(r*d) * Y_ln(d) dOmega, approximated as the mean over shDirections
// (valid because the real SH basis is orthonormal under the uniform
// measure on the sphere, so the quadrature estimate converges to the exact
// analytic entry as sample count grows). Band 1 skips the quadrature: its
// basis is (y, z, x) times a common constant, so its rotation matrix is r
// with rows and columns permuted the same way, which is exact.
func bandRotationMatrix(l int, r [3][3]float64) [][]float64 {
	n := 2*l + 1
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	if l == 1 {
		perm := [3]int{1, 2, 0}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m[i][j] = r[perm[i]][perm[j]]
			}
		}
		return m
	}
	weight := 4 * math.Pi / float64(len(shDirections))
	for _, d := range shDirections {
		rotated := applyMatrixVec(r, d)
		ylmRotated := realSH(l, rotated)
		yln := realSH(l, d)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				m[i][j] += ylmRotated[i] * yln[j] * weight
			}
		}
	}
	return m
}
