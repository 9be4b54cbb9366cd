package main

import (
	"testing"

	"github.com/katalvlaran/birchrng/point"
	"github.com/katalvlaran/birchrng/reps"
)

func TestParseFarPolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    reps.FarPolicy
		wantErr bool
	}{
		{"reverse", reps.FarPolicyReverse, false},
		{"", reps.FarPolicyReverse, false},
		{"cure", reps.FarPolicyCURE, false},
		{"bogus", 0, true},
	}
	for _, c := range cases {
		got, err := parseFarPolicy(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("parseFarPolicy(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseFarPolicy(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("parseFarPolicy(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseLabelPosition(t *testing.T) {
	cases := []struct {
		in      string
		want    point.LabelPosition
		wantErr bool
	}{
		{"none", point.LabelNone, false},
		{"", point.LabelNone, false},
		{"first", point.LabelFirstColumn, false},
		{"last", point.LabelLastColumn, false},
		{"middle", 0, true},
	}
	for _, c := range cases {
		got, err := parseLabelPosition(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("parseLabelPosition(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseLabelPosition(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("parseLabelPosition(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestGridSeedStaysWithinSquareBounds(t *testing.T) {
	const n = 10
	const side = 4 // ceil(sqrt(10))
	for i := 0; i < n; i++ {
		p := gridSeed(i, n)
		if p.X < 0 || p.Y < 0 {
			t.Fatalf("gridSeed(%d, %d) = %+v, want non-negative coordinates", i, n, p)
		}
		if p.X >= side || p.Y >= side {
			t.Fatalf("gridSeed(%d, %d) = %+v, want both coordinates below %d", i, n, p, side)
		}
	}
}
