package docfetch

import (
	"math"
	"testing"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestCmToInches(t *testing.T) {
	tests := []struct {
		cm   float64
		want float64
	}{
		{2.54, 1.0},
		{0, 0},
		{21.0, 8.2677},
		{29.7, 11.6929},
	}
	for _, tt := range tests {
		got := cmToInches(tt.cm)
		if !almostEqual(got, tt.want, 0.001) {
			t.Errorf("cmToInches(%v) = %v, want ~%v", tt.cm, got, tt.want)
		}
	}
}

func TestDefaultPrintConfig(t *testing.T) {
	d := DefaultPrintConfig()
	if d.Paper != A4 {
		t.Errorf("default paper = %v, want A4", d.Paper)
	}
	if d.Landscape {
		t.Error("default is landscape, want portrait")
	}
	if d.Scale != 1.0 {
		t.Errorf("default scale = %v, want 1.0", d.Scale)
	}
	if d.MarginCM != 1.0 {
		t.Errorf("default margin = %v, want 1.0", d.MarginCM)
	}
	if d.SkipBackground {
		t.Error("default skips background, want background printed")
	}
}

func TestPrintConfigResolved_Nil(t *testing.T) {
	var pc *PrintConfig
	if r := pc.resolved(); r != DefaultPrintConfig() {
		t.Errorf("nil resolved = %+v, want defaults", r)
	}
}

func TestPrintConfigResolved_FillsZeroFields(t *testing.T) {
	pc := &PrintConfig{Landscape: true}
	r := pc.resolved()
	if r.Paper != A4 || r.Scale != 1.0 || r.MarginCM != 1.0 {
		t.Errorf("resolved = %+v, want A4, scale 1, margin 1", r)
	}
	if !r.Landscape {
		t.Error("resolved dropped Landscape")
	}
}

func TestPaperInches(t *testing.T) {
	portrait := &PrintConfig{Paper: Letter}
	w, h := portrait.paperInches()
	if !almostEqual(w, 8.5, 0.01) || !almostEqual(h, 11, 0.01) {
		t.Errorf("Letter portrait = %v x %v, want 8.5 x 11", w, h)
	}

	landscape := &PrintConfig{Paper: Letter, Landscape: true}
	w, h = landscape.paperInches()
	if !almostEqual(w, 11, 0.01) || !almostEqual(h, 8.5, 0.01) {
		t.Errorf("Letter landscape = %v x %v, want 11 x 8.5", w, h)
	}

	var nilCfg *PrintConfig
	if m := nilCfg.marginInches(); !almostEqual(m, 0.3937, 0.001) {
		t.Errorf("default margin = %v in, want ~0.3937", m)
	}
}

func TestPrintConfigResolved_NoMargins(t *testing.T) {
	pc := &PrintConfig{NoMargins: true, MarginCM: 2}
	if r := pc.resolved(); r.MarginCM != 0 {
		t.Errorf("NoMargins resolved margin = %v, want 0", r.MarginCM)
	}
	if m := pc.marginInches(); m != 0 {
		t.Errorf("NoMargins margin = %v in, want 0", m)
	}

	custom := &PrintConfig{MarginCM: 2.54}
	if m := custom.marginInches(); !almostEqual(m, 1, 0.001) {
		t.Errorf("custom margin = %v in, want 1", m)
	}
}
