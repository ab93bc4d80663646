// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "testing"

func TestNewSource_IdentityCoincides(t *testing.T) {
	u := NewSource(func() float64 { return 1.5 })

	src, ok := u.Root().(*SourceNode[float64])
	if !ok {
		t.Fatalf("expected *SourceNode, got %T", u.Root())
	}
	if src.ID != u.ID() {
		t.Errorf("source identity %s != handle identity %s", src.ID, u.ID())
	}
	if got := u.Draw(); got != 1.5 {
		t.Errorf("expected draw 1.5, got %v", got)
	}
}

func TestDerived_FreshIdentity(t *testing.T) {
	u := NewSource(func() float64 { return 2 })
	m := Map(u, func(v float64) float64 { return v * 10 })

	if m.ID() == u.ID() {
		t.Error("derived handle must not reuse the operand's identity")
	}
	if got := m.Draw(); got != 20 {
		t.Errorf("expected draw 20, got %v", got)
	}
}

func TestCombine_SharesOperandByReference(t *testing.T) {
	x := NewSource(func() float64 { return 1 })
	d := Sub(x, x)

	bin, ok := d.Root().(*BinaryNode[float64])
	if !ok {
		t.Fatalf("expected *BinaryNode, got %T", d.Root())
	}
	if bin.Left != bin.Right {
		t.Error("both operands should be the identical node pointer")
	}
	if bin.Left != x.Root() {
		t.Error("operand should share the source's root node")
	}
}

func TestFilter_DrawPassesThrough(t *testing.T) {
	u := NewSource(func() float64 { return 7 })
	f := Filter(u, func(v float64) bool { return v > 100 })

	if got := f.Draw(); got != 7 {
		t.Errorf("filter draw should pass through, got %v", got)
	}
	un, ok := f.Root().(*UnaryNode[float64])
	if !ok {
		t.Fatalf("expected *UnaryNode, got %T", f.Root())
	}
	if un.Kind != UnaryFilter {
		t.Errorf("expected UnaryFilter kind, got %v", un.Kind)
	}
	if un.Keep == nil {
		t.Error("predicate should be recorded on the node")
	}
}

func TestIf_DrawSelectsBranch(t *testing.T) {
	cond := NewSource(func() bool { return true })
	a := NewSource(func() float64 { return 1 })
	b := NewSource(func() float64 { return 2 })

	if got := If(cond, a, b).Draw(); got != 1 {
		t.Errorf("expected true branch value 1, got %v", got)
	}

	cond2 := NewSource(func() bool { return false })
	if got := If(cond2, a, b).Draw(); got != 2 {
		t.Errorf("expected false branch value 2, got %v", got)
	}
}

func TestBoolHelpers(t *testing.T) {
	yes := NewSource(func() bool { return true })
	no := NewSource(func() bool { return false })

	if Not(yes).Draw() {
		t.Error("Not(true) should draw false")
	}
	if And(yes, no).Draw() {
		t.Error("true && false should draw false")
	}
	if !Or(yes, no).Draw() {
		t.Error("true || false should draw true")
	}
}

func TestArithmeticHelpers(t *testing.T) {
	a := NewSource(func() float64 { return 6 })
	b := NewSource(func() float64 { return 3 })

	cases := []struct {
		name string
		u    *Uncertain[float64]
		want float64
	}{
		{"add", Add(a, b), 9},
		{"sub", Sub(a, b), 3},
		{"mul", Mul(a, b), 18},
		{"div", Div(a, b), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.u.Draw(); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
