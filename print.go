package docfetch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// PaperSize represents paper dimensions in centimeters.
type PaperSize struct {
	Width  float64
	Height float64
}

// Common paper sizes.
var (
	A4     = PaperSize{Width: 21.0, Height: 29.7}
	Letter = PaperSize{Width: 21.59, Height: 27.94}
)

// PrintConfig controls the print-to-PDF fallback.
//
// A nil PrintConfig or zero-value fields use A4 paper, portrait, 1 cm
// margins, scale 1.0 and background graphics.
type PrintConfig struct {
	Paper     PaperSize
	Landscape bool
	// MarginCM is applied to all four sides.
	MarginCM float64
	// NoMargins prints edge to edge and overrides MarginCM.
	NoMargins bool
	// Scale of the rendering, between 0.1 and 2.0.
	Scale float64
	// SkipBackground disables printing of background colors and images.
	SkipBackground bool
}

// DefaultPrintConfig returns the print settings used when none are given.
func DefaultPrintConfig() PrintConfig {
	return PrintConfig{
		Paper:    A4,
		MarginCM: 1.0,
		Scale:    1.0,
	}
}

func (p *PrintConfig) resolved() PrintConfig {
	d := DefaultPrintConfig()
	if p == nil {
		return d
	}
	r := *p
	if r.Paper == (PaperSize{}) {
		r.Paper = d.Paper
	}
	if r.Scale <= 0 {
		r.Scale = d.Scale
	}
	switch {
	case r.NoMargins:
		r.MarginCM = 0
	case r.MarginCM <= 0:
		r.MarginCM = d.MarginCM
	}
	return r
}

func cmToInches(cm float64) float64 {
	return cm / 2.54
}

// paperInches returns paper width and height in inches after orientation.
func (p *PrintConfig) paperInches() (width, height float64) {
	r := p.resolved()
	w, h := cmToInches(r.Paper.Width), cmToInches(r.Paper.Height)
	if r.Landscape {
		return h, w
	}
	return w, h
}

func (p *PrintConfig) marginInches() float64 {
	return cmToInches(p.resolved().MarginCM)
}

// printPage is the last technique: it renders whatever the session shows
// to PDF. It fails only when the browser cannot print or prints nothing.
func printPage(ctx context.Context, a *attempt) (*artifact, error) {
	a.scroll(ctx, a.profile.Print.Scroll)

	data, err := a.session.PrintPDF(ctx, a.print)
	if err != nil {
		return nil, classify(ErrNoContent, err, "printing page")
	}
	if len(data) == 0 {
		return nil, goerr.Wrap(ErrNoContent, "printed PDF is empty")
	}

	p := filepath.Join(a.dir, "page.pdf")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return nil, classify(ErrNoContent, err, "writing printed PDF")
	}
	return &artifact{
		path:     p,
		size:     int64(len(data)),
		filename: suggestedName(a.profile.Naming.PrintPrefix, "", a.now()),
	}, nil
}
