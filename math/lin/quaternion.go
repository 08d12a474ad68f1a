// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// Quaternion deals with quaternion math specifically for linear algebra
// rotations. For a nice explanation of quaternions see
// http://3dgep.com/?p=1815
//
// Unit length quaternions represent an angle of rotation and a
// direction/orientation and are used to track/manipulate 3D object
// rotations. Quaternions behave nicely for mathematical operations other
// than they are not commutative.

import "math"

// Q is a rotation quaternion.
type Q struct {
	X float64 // X component of direction vector.
	Y float64 // Y component of direction vector.
	Z float64 // Z component of direction vector.
	W float64 // Angle of rotation.
}

// QI is a reference identity quaternion that can be used in calculations.
// It should never be changed.
var QI = &Q{0, 0, 0, 1}

// NewQ creates a new, uninitialized quaternion.
func NewQ() *Q { return &Q{} }

// SetAa sets quaternion q to the rotation denoted by the given axis
// ax, ay, az and angle (radians). The updated quaternion q is returned.
// The quaternion q is set to the identity if the axis length is 0.
func (q *Q) SetAa(ax, ay, az, angle float64) *Q {
	alenSqr := ax*ax + ay*ay + az*az
	if alenSqr == 0 {
		q.X, q.Y, q.Z, q.W = 0, 0, 0, 1
		return q
	}
	s := math.Sin(angle*0.5) / math.Sqrt(alenSqr)
	q.X, q.Y, q.Z, q.W = ax*s, ay*s, az*s, math.Cos(angle*0.5)
	return q
}
