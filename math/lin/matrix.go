// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package lin provides the handful of 3D linear-algebra types this tree
// actually exercises: a 4x4 transform matrix (M4, used for node world
// transforms) and a rotation quaternion (Q, used to rotate Gaussian-splat
// spherical harmonics). It is trimmed from a much larger vector/matrix/
// quaternion/transform library built for a live render loop, which also
// covered 3x3 matrices, 3D/4D vectors and combined scale-rotate-translate
// transforms that this tree has no use for.
package lin

// Row or Column Major order? No matter the convention, the end result of a
// vector point (x, y, z, 1) multiplied with a transform matrix must be:
//   x' = x*Xx + y*Yx + z*Zx + Tx
//   y' = x*Xy + y*Yy + z*Zy + Ty
//	 z' = x*Xz + y*Yz + z*Zz + Tz
// Where x, y, z is the original vector and X, Y, Z are the three axes of the
// coordinate system.
//
// Conforming to the above memory layout, this matrix implementation uses
// explicitly indexed, Row-Major, matrix members as follows:
//               4x4 M4
//	     [Xx, Xy, Xz, Xw]  X-Axis
//	     [Yx, Yy, Yz, Yw]  Y-Axis
//	     [Zx, Zy, Zz, Zw]  Z-Axis
//	     [Wx, Wy, Wz, Ww]  Translation vector, Ww == 1.

// M4 is a 4x4 matrix where the matrix elements are individually addressable.
type M4 struct {
	Xx, Xy, Xz, Xw float64 // indices 0, 1, 2, 3  [00, 01, 02, 03] X-Axis
	Yx, Yy, Yz, Yw float64 // indices 4, 5, 6, 7  [10, 11, 12, 13] Y-Axis
	Zx, Zy, Zz, Zw float64 // indices 8, 9, a, b  [20, 21, 22, 23] Z-Axis
	Wx, Wy, Wz, Ww float64 // indices c, d, e, f  [30, 31, 32, 33]
}

// NewM4I creates a new identity matrix.
func NewM4I() *M4 { return &M4{Xx: 1, Yy: 1, Zz: 1, Ww: 1} }

// Mult is matrix multiply m = l*r. It is safe to use the calling matrix m as
// one or both of the parameters.
//    [ lXx lXy lXz lXw ] [ rXx rXy rXz rXw ]    [ mXx mXy mXz mXw ]
//    [ lYx lYy lYz lYw ]x[ rYx rYy rYz rYw ] => [ mYx mYy mYz mYw ]
//    [ lZx lZy lZz lZw ] [ rZx rZy rZz rZw ]    [ mZx mZy mZz mZw ]
//    [ lWx lWy lWz lWw ] [ rWx rWy rWz rWw ]    [ mWx mWy mWz mWw ]
func (m *M4) Mult(l, r *M4) *M4 {
	xx := l.Xx*r.Xx + l.Xy*r.Yx + l.Xz*r.Zx + l.Xw*r.Wx
	xy := l.Xx*r.Xy + l.Xy*r.Yy + l.Xz*r.Zy + l.Xw*r.Wy
	xz := l.Xx*r.Xz + l.Xy*r.Yz + l.Xz*r.Zz + l.Xw*r.Wz
	xw := l.Xx*r.Xw + l.Xy*r.Yw + l.Xz*r.Zw + l.Xw*r.Ww
	yx := l.Yx*r.Xx + l.Yy*r.Yx + l.Yz*r.Zx + l.Yw*r.Wx
	yy := l.Yx*r.Xy + l.Yy*r.Yy + l.Yz*r.Zy + l.Yw*r.Wy
	yz := l.Yx*r.Xz + l.Yy*r.Yz + l.Yz*r.Zz + l.Yw*r.Wz
	yw := l.Yx*r.Xw + l.Yy*r.Yw + l.Yz*r.Zw + l.Yw*r.Ww
	zx := l.Zx*r.Xx + l.Zy*r.Yx + l.Zz*r.Zx + l.Zw*r.Wx
	zy := l.Zx*r.Xy + l.Zy*r.Yy + l.Zz*r.Zy + l.Zw*r.Wy
	zz := l.Zx*r.Xz + l.Zy*r.Yz + l.Zz*r.Zz + l.Zw*r.Wz
	zw := l.Zx*r.Xw + l.Zy*r.Yw + l.Zz*r.Zw + l.Zw*r.Ww
	wx := l.Wx*r.Xx + l.Wy*r.Yx + l.Wz*r.Zx + l.Ww*r.Wx
	wy := l.Wx*r.Xy + l.Wy*r.Yy + l.Wz*r.Zy + l.Ww*r.Wy
	wz := l.Wx*r.Xz + l.Wy*r.Yz + l.Wz*r.Zz + l.Ww*r.Wz
	ww := l.Wx*r.Xw + l.Wy*r.Yw + l.Wz*r.Zw + l.Ww*r.Ww
	m.Xx, m.Xy, m.Xz, m.Xw = xx, xy, xz, xw
	m.Yx, m.Yy, m.Yz, m.Yw = yx, yy, yz, yw
	m.Zx, m.Zy, m.Zz, m.Zw = zx, zy, zz, zw
	m.Wx, m.Wy, m.Wz, m.Ww = wx, wy, wz, ww
	return m
}
