// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package gsplat implements the numeric encodings used by the Gaussian
// splat mesh-format extensions (formats/ply, formats/spz) and the
// spherical-harmonic rotation kernel, an external numerical collaborator
// called point-wise per splat.
package gsplat

import "math"

// Logit is the inverse of Sigmoid: logit(o) = log(o / (1-o)). Opacity is
// stored logit-encoded in both PLY and SPZ Gaussian-splat extensions, so
// that any real value on disk decodes to a valid (0,1) opacity.
func Logit(o float64) float64 {
	return math.Log(o / (1 - o))
}

// Sigmoid is the inverse of Logit: sigmoid(x) = 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// EncodeWidth log-encodes a splat axis width for storage: a width of 2
// (scale_0 = log(1) = 0) is the unscaled default.
func EncodeWidth(w float64) float64 {
	return math.Log(w / 2)
}

// DecodeWidth inverts EncodeWidth.
func DecodeWidth(encoded float64) float64 {
	return 2 * math.Exp(encoded)
}

// sqrtPi is the constant used by the base-color encoding below.
var sqrtPi = math.Sqrt(math.Pi)

// EncodeColorDC encodes a linear base color channel as the zeroth-order
// spherical-harmonic coefficient: (c - 0.5) * 2 * sqrt(pi). A mid-gray
// input (0.5) encodes to exactly 0.
func EncodeColorDC(c float64) float64 {
	return (c - 0.5) * 2 * sqrtPi
}

// DecodeColorDC inverts EncodeColorDC.
func DecodeColorDC(dc float64) float64 {
	return dc/(2*sqrtPi) + 0.5
}

// NumSHCoefficients returns the number of non-zeroth-order coefficients per
// color channel for the given spherical-harmonic band degree (1, 2 or 3),
// i.e. degree*(degree+2), matching numNonZeroSHBandsFromDegree.
func NumSHCoefficients(degree int) int {
	return degree * (degree + 2)
}

// SHDegreeFromCoefficientCount is the inverse of NumSHCoefficients*3,
// matching numSHDegreesFromGsplat: a Gaussian splat stores R, G, B
// channels per band so the raw coefficient count must be divided by 3
// before inverting degree*(degree+2).
func SHDegreeFromCoefficientCount(numCoefficients int) int {
	numNonZeroBands := numCoefficients / 3
	return int(math.Floor(math.Sqrt(float64(numNonZeroBands)+1.0))) - 1
}
