// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package gsplat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adobe/usd-fileformat-plugins/math/lin"
)

func TestOpacityRoundTrip(t *testing.T) {
	for _, o := range []float64{0.01, 0.1, 0.5, 0.5, 0.9, 0.99} {
		got := Sigmoid(Logit(o))
		assert.InDelta(t, o, got, 1e-9)
	}
}

func TestWidthRoundTrip(t *testing.T) {
	for _, w := range []float64{0.001, 1, 2, 10, 100} {
		got := DecodeWidth(EncodeWidth(w))
		assert.InDelta(t, w, got, 1e-9)
	}
}

func TestGsplatExportScenario(t *testing.T) {
	// Default splat: width 2, opacity 0.5, color (0.5,0.5,0.5) all
	// encode to exactly 0.
	assert.InDelta(t, 0, EncodeWidth(2), 1e-12)
	assert.InDelta(t, 0, Logit(0.5), 1e-12)
	assert.InDelta(t, 0, EncodeColorDC(0.5), 1e-12)
}

func TestSHDegreeFromCoefficientCount(t *testing.T) {
	assert.Equal(t, 1, SHDegreeFromCoefficientCount(9))
	assert.Equal(t, 2, SHDegreeFromCoefficientCount(24))
	assert.Equal(t, 3, SHDegreeFromCoefficientCount(45))
}

func TestRotateSHIdentitySkipsWork(t *testing.T) {
	coeffs := [][]float64{{1, 2, 3}}
	out := RotateSH(coeffs, 1, lin.QI)
	assert.Equal(t, coeffs, out)
}

func TestRotateSHPreservesBandEnergy(t *testing.T) {
	// A rotation is an orthonormal transform on each SH band, so the sum
	// of squared coefficients per point (the "band energy") must be
	// invariant under rotation.
	coeffs := [][]float64{{0.4}, {0.2}, {-0.6}}
	q := lin.NewQ().SetAa(1, 0, 0, math.Pi/3)
	out := RotateSH(coeffs, 1, q)

	var before, after float64
	for _, c := range coeffs {
		before += c[0] * c[0]
	}
	for _, c := range out {
		after += c[0] * c[0]
	}
	assert.InDelta(t, before, after, 1e-6)
}
