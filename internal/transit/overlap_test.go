package transit

import (
	"errors"
	"math"
	"testing"
)

func mustOcclusion(t *testing.T, rs, rp, d float64) float64 {
	t.Helper()
	f, err := OcclusionFraction(rs, rp, d)
	if err != nil {
		t.Fatalf("OcclusionFraction(%v, %v, %v): %v", rs, rp, d, err)
	}
	return f
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		rs, rp, d  float64
		wantRegime Regime
	}{
		{"far apart", 100, 50, 200, NoOverlap},
		{"external tangency", 100, 50, 150, NoOverlap},
		{"edges crossing", 100, 50, 120, PartialOverlap},
		{"internal tangency", 100, 50, 50, FullContainment},
		{"centred small planet", 100, 50, 0, FullContainment},
		{"centred equal disks", 100, 100, 0, FullContainment},
		{"centred large planet", 50, 100, 0, FullContainment},
		{"large planet offset", 50, 100, 30, FullContainment},
		{"large planet crossing", 50, 100, 80, PartialOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.rs, tt.rp, tt.d); got != tt.wantRegime {
				t.Errorf("Classify(%v, %v, %v) = %v, want %v", tt.rs, tt.rp, tt.d, got, tt.wantRegime)
			}
		})
	}
}

func TestNoOcclusionBeyondContact(t *testing.T) {
	for _, d := range []float64{150, 150.0000001, 200, 1e9} {
		if f := mustOcclusion(t, 100, 50, d); f != 0 {
			t.Errorf("d=%v: occlusion = %v, want exactly 0", d, f)
		}
	}

	// Rs=100, Rp=50, d=200 leaves the star at full brightness.
	if b := 1 - mustOcclusion(t, 100, 50, 200); b != 1 {
		t.Errorf("brightness = %v, want 1", b)
	}
}

func TestCentredContainment(t *testing.T) {
	tests := []struct{ rs, rp float64 }{
		{100, 50},
		{100, 1},
		{696340, 6371},
		{1, 0.1},
	}
	for _, tt := range tests {
		want := (tt.rp / tt.rs) * (tt.rp / tt.rs)
		if got := mustOcclusion(t, tt.rs, tt.rp, 0); got != want {
			t.Errorf("Rs=%v Rp=%v d=0: occlusion = %v, want %v", tt.rs, tt.rp, got, want)
		}
	}
}

// TestSunEarth checks one Earth radius centred on one Solar radius (km).
func TestSunEarth(t *testing.T) {
	f := mustOcclusion(t, 696340, 6371, 0)
	if math.Abs(f-8.37e-5) > 1e-7 {
		t.Errorf("occlusion = %.6e, want ~8.37e-5", f)
	}
	if b := 1 - f; math.Abs(b-0.9999163) > 5e-8 {
		t.Errorf("brightness = %.8f, want ~0.9999163", b)
	}
}

func TestTotalEclipse(t *testing.T) {
	if f := mustOcclusion(t, 100, 100, 0); f != 1 {
		t.Errorf("occlusion = %v, want 1", f)
	}
}

// TestPlanetLargerThanStar pins the convention that a planet wider than the
// star, with the star fully behind it, hides the whole disk.
func TestPlanetLargerThanStar(t *testing.T) {
	for _, d := range []float64{0, 10, 50} {
		if f := mustOcclusion(t, 50, 100, d); f != 1 {
			t.Errorf("Rs=50 Rp=100 d=%v: occlusion = %v, want 1", d, f)
		}
	}
}

// TestUnitLens compares against the closed form for two unit circles one
// radius apart: 2pi/3 - sqrt(3)/2.
func TestUnitLens(t *testing.T) {
	want := (2*math.Pi/3 - math.Sqrt(3)/2) / math.Pi
	if got := mustOcclusion(t, 1, 1, 1); math.Abs(got-want) > 1e-12 {
		t.Errorf("occlusion = %.15f, want %.15f", got, want)
	}
}

func TestContinuityAtBoundaries(t *testing.T) {
	const step = 1e-7
	tests := []struct {
		name     string
		rs, rp   float64
		boundary float64
	}{
		{"outer small planet", 100, 30, 130},
		{"inner small planet", 100, 30, 70},
		{"outer large planet", 50, 100, 150},
		{"inner large planet", 50, 100, 50},
		{"outer equal disks", 100, 100, 200},
		{"outer sun earth", 696340, 6371, 696340 + 6371},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			below := mustOcclusion(t, tt.rs, tt.rp, tt.boundary-step)
			at := mustOcclusion(t, tt.rs, tt.rp, tt.boundary)
			above := mustOcclusion(t, tt.rs, tt.rp, tt.boundary+step)
			if math.Abs(below-at) > 1e-6 || math.Abs(above-at) > 1e-6 {
				t.Errorf("discontinuity at d=%v: below=%.12f at=%.12f above=%.12f", tt.boundary, below, at, above)
			}
		})
	}
}

func TestMonotoneInSeparation(t *testing.T) {
	for _, radii := range [][2]float64{{100, 30}, {100, 100}, {50, 100}, {1, 0.5}} {
		rs, rp := radii[0], radii[1]
		const steps = 5000
		prev := mustOcclusion(t, rs, rp, 0)
		for i := 1; i <= steps; i++ {
			d := (rs + rp) * float64(i) / steps
			f := mustOcclusion(t, rs, rp, d)
			if f > prev+1e-9 {
				t.Fatalf("Rs=%v Rp=%v: occlusion rose from %.15f to %.15f at d=%v", rs, rp, prev, f, d)
			}
			if f < 0 || f > 1 {
				t.Fatalf("Rs=%v Rp=%v d=%v: occlusion %v out of [0,1]", rs, rp, d, f)
			}
			prev = f
		}
	}
}

func TestOcclusionRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		rs, rp, d float64
		field     string
	}{
		{"zero star", 0, 1, 1, "star_radius"},
		{"negative star", -1, 1, 1, "star_radius"},
		{"zero planet", 1, 0, 1, "planet_radius"},
		{"NaN planet", 1, math.NaN(), 1, "planet_radius"},
		{"negative separation", 1, 1, -0.5, "separation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OcclusionFraction(tt.rs, tt.rp, tt.d)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("err = %v, want ErrInvalidParameter", err)
			}
			var pe *ParameterError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %T, want *ParameterError", err)
			}
			if pe.Field != tt.field {
				t.Errorf("field = %q, want %q", pe.Field, tt.field)
			}
		})
	}
}

func TestRegimeText(t *testing.T) {
	b, err := PartialOverlap.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "partial_overlap" {
		t.Errorf("MarshalText = %q", b)
	}
}
