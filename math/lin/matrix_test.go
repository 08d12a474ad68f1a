// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import "testing"

func TestNewM4IIsIdentity(t *testing.T) {
	m := NewM4I()
	want := &M4{Xx: 1, Yy: 1, Zz: 1, Ww: 1}
	if *m != *want {
		t.Errorf("got %+v, want %+v", m, want)
	}
}

func TestMultByIdentityIsUnchanged(t *testing.T) {
	a := &M4{Xx: 1, Xy: 2, Yx: 3, Yy: 4, Zz: 1, Ww: 1}
	var got M4
	got.Mult(a, NewM4I())
	if got != *a {
		t.Errorf("got %+v, want %+v", got, a)
	}
}

func TestMultCombinesTranslations(t *testing.T) {
	// Translate by (1,2,3) then by (4,5,6): composed translation is (5,7,9).
	t1 := &M4{Xx: 1, Yy: 1, Zz: 1, Ww: 1, Wx: 1, Wy: 2, Wz: 3}
	t2 := &M4{Xx: 1, Yy: 1, Zz: 1, Ww: 1, Wx: 4, Wy: 5, Wz: 6}
	var got M4
	got.Mult(t1, t2)
	if got.Wx != 5 || got.Wy != 7 || got.Wz != 9 {
		t.Errorf("got translation (%v,%v,%v), want (5,7,9)", got.Wx, got.Wy, got.Wz)
	}
}
