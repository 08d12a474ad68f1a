// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import (
	"math"
	"testing"
)

func TestSetAaZeroAxisIsIdentity(t *testing.T) {
	q := NewQ().SetAa(0, 0, 0, math.Pi)
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("got %+v, want identity", q)
	}
}

func TestSetAaIsUnitLength(t *testing.T) {
	q := NewQ().SetAa(1, 2, 3, math.Pi/4)
	length := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if math.Abs(length-1) > 1e-9 {
		t.Errorf("got length %v, want 1", length)
	}
}

func TestQI(t *testing.T) {
	if QI.X != 0 || QI.Y != 0 || QI.Z != 0 || QI.W != 1 {
		t.Errorf("got %+v, want identity", QI)
	}
}
