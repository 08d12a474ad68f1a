// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFileFormatArgsKnownKeys(t *testing.T) {
	args := ParseFileFormatArgs(map[string]string{
		"writeMaterialX": "true",
		"depth":          "3",
		"plyPointWidth":  "0.05",
		"spzGsplatsClippingBox": "-1,-1,-1,1,1,1",
	})
	assert.True(t, args.WriteMaterialX)
	assert.Equal(t, 3, args.Depth)
	assert.InDelta(t, 0.05, args.PlyPointWidth, 1e-9)
	assert.Equal(t, []float64{-1, -1, -1, 1, 1, 1}, args.SpzGsplatsClippingBox)
}

func TestParseFileFormatArgsIgnoresUnknownKeys(t *testing.T) {
	args := ParseFileFormatArgs(map[string]string{"bogusKey": "whatever"})
	assert.Equal(t, DefaultFileFormatArgs(), args)
}

func TestParseFileFormatArgsDefaults(t *testing.T) {
	args := ParseFileFormatArgs(nil)
	assert.False(t, args.WriteMaterialX)
	assert.Equal(t, 0, args.Depth)
}
