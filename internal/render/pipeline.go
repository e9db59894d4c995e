// Package render turns scan URLs into QR artifacts: PNG, SVG and printable PDF pages.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"github.com/kingrain94/table-qr-api/internal/domain"
)

type Size int

const (
	SizePreview Size = iota
	SizeDownload
)

const (
	pageWidthMM   = 210.0
	codeWidthMM   = 120.0
	titleTopMM    = 30.0
	codeTopMM     = 55.0
	captionGapMM  = 10.0
	captionMargin = 15.0
)

// Observer receives render timings. Implemented by the metrics package.
type Observer interface {
	ObserveRender(format string, d time.Duration, err error)
}

type Options struct {
	PreviewSize  int
	DownloadSize int
	Level        qrcode.RecoveryLevel
	Observer     Observer
}

// DocumentPage is one printed table card.
type DocumentPage struct {
	URL   string
	Label string
}

type Pipeline struct {
	previewSize  int
	downloadSize int
	level        qrcode.RecoveryLevel
	observer     Observer
}

func NewPipeline(opts Options) *Pipeline {
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = 300
	}
	if opts.DownloadSize <= 0 {
		opts.DownloadSize = 1000
	}
	return &Pipeline{
		previewSize:  opts.PreviewSize,
		downloadSize: opts.DownloadSize,
		level:        opts.Level,
		observer:     opts.Observer,
	}
}

// ToRaster renders url as a square PNG of the preview or download width.
func (p *Pipeline) ToRaster(url string, size Size) (data []byte, err error) {
	defer p.observe("png", time.Now(), &err)

	data, err = p.raster(url, p.width(size))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ToVector renders url as a standalone SVG document.
func (p *Pipeline) ToVector(url string) (svg string, err error) {
	defer p.observe("svg", time.Now(), &err)

	code, err := p.encode(url)
	if err != nil {
		return "", err
	}
	return bitmapToSVG(code.Bitmap(), p.downloadSize), nil
}

// ToDocument renders a single A4 page: label, centered code, url caption.
func (p *Pipeline) ToDocument(url, label string) ([]byte, error) {
	return p.ToCombinedDocument([]DocumentPage{{URL: url, Label: label}})
}

// ToCombinedDocument renders one page per entry, in order.
func (p *Pipeline) ToCombinedDocument(pages []DocumentPage) (data []byte, err error) {
	defer p.observe("pdf", time.Now(), &err)

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages to render", domain.ErrRenderFailed)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Table QR codes", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, page := range pages {
		png, err := p.raster(page.URL, p.downloadSize)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("qr-%d", i)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 24)
		pdf.SetXY(captionMargin, titleTopMM)
		pdf.CellFormat(pageWidthMM-2*captionMargin, 12, tr(page.Label), "", 0, "C", false, 0, "")

		x := (pageWidthMM - codeWidthMM) / 2
		pdf.ImageOptions(name, x, codeTopMM, codeWidthMM, codeWidthMM, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(captionMargin, codeTopMM+codeWidthMM+captionGapMM)
		pdf.MultiCell(pageWidthMM-2*captionMargin, 5, page.URL, "", "C", false)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func (p *Pipeline) width(size Size) int {
	if size == SizeDownload {
		return p.downloadSize
	}
	return p.previewSize
}

func (p *Pipeline) encode(url string) (*qrcode.QRCode, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: empty content", domain.ErrRenderFailed)
	}
	code, err := qrcode.New(url, p.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	return code, nil
}

func (p *Pipeline) raster(url string, width int) ([]byte, error) {
	code, err := p.encode(url)
	if err != nil {
		return nil, err
	}
	data, err := code.PNG(width)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	return data, nil
}

func (p *Pipeline) observe(format string, start time.Time, err *error) {
	if p.observer != nil {
		p.observer.ObserveRender(format, time.Since(start), *err)
	}
}

// bitmapToSVG draws dark modules as merged horizontal runs on a white background.
func bitmapToSVG(bitmap [][]bool, width int) string {
	n := len(bitmap)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">`, n, n, width, width)
	b.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	b.WriteString(`<path fill="#000000" d="`)
	for y, row := range bitmap {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			fmt.Fprintf(&b, "M%d %dh%dv1h-%dz", start, y, x-start, x-start)
		}
	}
	b.WriteString(`"/></svg>`)
	return b.String()
}
