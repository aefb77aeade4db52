package docfetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jung-kurt/gofpdf"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const maxImageBytes = 32 << 20

// imageCandidates returns up to cfg.Limit page image URLs in selector order.
func imageCandidates(html string, base *url.URL, cfg ImageConfig) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, sel := range cfg.Selectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if cfg.Limit > 0 && len(out) >= cfg.Limit {
				return false
			}
			src, ok := s.Attr("src")
			if !ok {
				return true
			}
			abs, ok := resolveLink(base, src)
			if ok && !seen[abs] {
				seen[abs] = true
				out = append(out, abs)
			}
			return true
		})
	}
	return out
}

// imagesToPDF reconstructs the document from its page images, one PDF page
// per image sized to the image.
func imagesToPDF(ctx context.Context, a *attempt) (*artifact, error) {
	cfg := a.profile.Images
	a.scroll(ctx, cfg.Scroll)

	html, err := a.session.HTML(ctx)
	if err != nil {
		return nil, classify(ErrTechniqueFailed, err, "reading page HTML")
	}
	srcs := imageCandidates(html, a.pageURL(ctx), cfg)
	if len(srcs) == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no page images found")
	}

	doc := newPageDoc()
	for _, src := range srcs {
		img, err := a.fetchImage(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil, goerr.Wrap(ctx.Err(), "fetching page images")
			}
			a.log.Debug().Err(err).Str("image", src).Msg("skipping page image")
			continue
		}
		if err := doc.add(img); err != nil {
			a.log.Debug().Err(err).Str("image", src).Msg("skipping page image")
		}
	}
	if doc.pages == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no page image could be decoded", goerr.V("images", len(srcs)))
	}

	p := filepath.Join(a.dir, "images.pdf")
	size, err := doc.save(p)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Int("pages", doc.pages).Msg("assembled image PDF")
	return &artifact{
		path:     p,
		size:     size,
		filename: suggestedName(a.profile.Naming.Prefix, a.docID, a.now()),
	}, nil
}

// screenshotsToPDF rebuilds the document from screenshots of its rendered
// page elements and names it after the page title.
func screenshotsToPDF(ctx context.Context, a *attempt) (*artifact, error) {
	cfg := a.profile.Shots
	a.scroll(ctx, cfg.Scroll)

	shots, err := a.session.Screenshot(ctx, cfg.Selector)
	if err != nil {
		return nil, classify(ErrTechniqueFailed, err, "capturing page elements", goerr.V("selector", cfg.Selector))
	}
	if len(shots) == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no page elements found", goerr.V("selector", cfg.Selector))
	}
	if cfg.Limit > 0 && len(shots) > cfg.Limit {
		shots = shots[:cfg.Limit]
	}

	doc := newPageDoc()
	for i, data := range shots {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			a.log.Debug().Err(err).Int("page", i).Msg("skipping screenshot")
			continue
		}
		if err := doc.add(img); err != nil {
			a.log.Debug().Err(err).Int("page", i).Msg("skipping screenshot")
		}
	}
	if doc.pages == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no screenshot could be decoded", goerr.V("screenshots", len(shots)))
	}

	p := filepath.Join(a.dir, "screenshots.pdf")
	size, err := doc.save(p)
	if err != nil {
		return nil, err
	}

	name := suggestedName(a.profile.Naming.Prefix, a.docID, a.now())
	if html, err := a.session.HTML(ctx); err == nil {
		if t := titleFilename(pageTitle(html)); t != "" {
			name = t
		}
	}
	a.log.Debug().Int("pages", doc.pages).Msg("assembled screenshot PDF")
	return &artifact{path: p, size: size, filename: name}, nil
}

// pageTitle returns the text of the document's <title>.
func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// pageDoc assembles a PDF with one page per image, each page sized to its
// image in points.
type pageDoc struct {
	pdf   *gofpdf.Fpdf
	pages int
}

func newPageDoc() *pageDoc {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &pageDoc{pdf: pdf}
}

func (d *pageDoc) add(img image.Image) error {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return goerr.New("empty image")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toRGB(img), &jpeg.Options{Quality: 90}); err != nil {
		return goerr.Wrap(err, "re-encoding page image")
	}

	name := fmt.Sprintf("page-%d", d.pages)
	opt := gofpdf.ImageOptions{ImageType: "JPG"}
	w, h := float64(b.Dx()), float64(b.Dy())
	d.pdf.RegisterImageOptionsReader(name, opt, &buf)
	d.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
	d.pdf.ImageOptions(name, 0, 0, w, h, false, opt, 0, "")
	d.pages++
	return nil
}

// save writes the document to path and returns its size.
func (d *pageDoc) save(path string) (int64, error) {
	if err := d.pdf.Error(); err != nil {
		return 0, classify(ErrTechniqueFailed, err, "assembling image PDF")
	}
	if err := d.pdf.OutputFileAndClose(path); err != nil {
		return 0, classify(ErrTechniqueFailed, err, "writing image PDF")
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, goerr.Wrap(err, "stat image PDF")
	}
	return info.Size(), nil
}

func (a *attempt) fetchImage(ctx context.Context, src string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "building image request")
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Referer", a.source.String())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "requesting image")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected image status", goerr.V("status", resp.StatusCode))
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, goerr.Wrap(err, "decoding image")
	}
	return img, nil
}

// toRGB flattens img onto a white background.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
