// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package common

// SplatCloud is a Gaussian-splat point cloud, the shared interchange shape
// for the PLY and SPZ Gaussian-splat extensions.
// Spherical-harmonic coefficients are stored column-major: SH[coefficient][point],
// matching the USD-side primvar layout; formats/spz transposes to/from the
// SPZ wire format's row-major layout on import/export.
type SplatCloud struct {
	Positions []Vec3
	// Widths holds the three log-encoded axis widths per point as stored
	// on disk (see gsplat.EncodeWidth); decoded widths are exposed via
	// gsplat.DecodeWidth at the point of use, not eagerly expanded here,
	// keeping the encoded form in the primvar and decoding only on demand.
	Widths []Vec3
	// Rotations are unit quaternions (X, Y, Z, W) per point.
	Rotations [][4]float64
	// Opacities are logit-encoded per point (see gsplat.Logit).
	Opacities []float64
	// Colors holds the zeroth-order SH coefficient per point ("base
	// color"), encoded via gsplat.EncodeColorDC.
	Colors []Vec3
	// SH holds bands 1..3 (up to 45 coefficients: 15 per color channel),
	// column-major: SH[coefficientIndex][pointIndex].
	SH [][]float64
}

// NumPoints returns the number of splats in the cloud.
func (s *SplatCloud) NumPoints() int { return len(s.Positions) }

// SHDegree returns the spherical-harmonic band count represented by SH,
// i.e. 0 if SH is empty, 1 for 9 coefficients, 2 for 24, 3 for 45 — the
// inverse of 3*gsplat.NumSHCoefficients (three color channels).
func (s *SplatCloud) SHDegree() int {
	switch len(s.SH) {
	case 0:
		return 0
	case 9:
		return 1
	case 24:
		return 2
	case 45:
		return 3
	default:
		// Not a standard band count; report the closest lower band so
		// callers can still make progress instead of panicking.
		switch {
		case len(s.SH) >= 45:
			return 3
		case len(s.SH) >= 24:
			return 2
		default:
			return 1
		}
	}
}
