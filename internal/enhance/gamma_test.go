package enhance

import (
	"image/color"
	"testing"
)

func TestNewGammaTable_Endpoints(t *testing.T) {
	for _, gamma := range []float64{0.5, 1, 1.1, 1.8, 2.2, 5} {
		table := NewGammaTable(gamma)
		if table[0] != 0 {
			t.Errorf("gamma %.1f: table[0] = %d, want 0", gamma, table[0])
		}
		if table[255] != 255 {
			t.Errorf("gamma %.1f: table[255] = %d, want 255", gamma, table[255])
		}
	}
}

func TestNewGammaTable_Monotonic(t *testing.T) {
	for _, gamma := range []float64{1, 1.1, 1.5, 2.2, 3, 10} {
		table := NewGammaTable(gamma)
		for v := 1; v < 256; v++ {
			if table[v] < table[v-1] {
				t.Fatalf("gamma %.1f: table[%d]=%d < table[%d]=%d", gamma, v, table[v], v-1, table[v-1])
			}
		}
	}
}

func TestNewGammaTable_Identity(t *testing.T) {
	table := NewGammaTable(1)
	for v := 0; v < 256; v++ {
		if int(table[v]) != v {
			t.Fatalf("gamma 1: table[%d] = %d", v, table[v])
		}
	}
}

func TestNewGammaTable_Midtones(t *testing.T) {
	tests := []struct {
		name     string
		gamma    float64
		brighter bool
	}{
		{"gamma above one brightens", 1.1, true},
		{"gamma below one darkens", 0.8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewGammaTable(tt.gamma)[128]
			if tt.brighter && v <= 128 {
				t.Errorf("table[128] = %d, want > 128", v)
			}
			if !tt.brighter && v >= 128 {
				t.Errorf("table[128] = %d, want < 128", v)
			}
		})
	}
}

func TestGammaCorrector_Apply(t *testing.T) {
	img := createSolidImage(5, 5, color.RGBA{128, 64, 200, 255})
	table := NewGammaTable(1.1)

	out := GammaCorrector{Table: table}.Apply(img)

	if out.Pix[0] != table[128] || out.Pix[1] != table[64] || out.Pix[2] != table[200] {
		t.Errorf("got (%d,%d,%d), want (%d,%d,%d)", out.Pix[0], out.Pix[1], out.Pix[2], table[128], table[64], table[200])
	}
	if img.Pix[0] != 128 {
		t.Error("Apply modified its input")
	}
	assertOpaque(t, out)
}
