package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

// =============================================================================
// Generator
// =============================================================================

// Generator renders inspection documents on A4 pages.
type Generator struct {
	images ImageLoader
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time

	// Page dimensions (A4 in mm)
	pageWidth    float64
	pageHeight   float64
	margin       float64
	contentWidth float64
}

// NewGenerator creates a generator that prints times in loc.
func NewGenerator(images ImageLoader, loc *time.Location, logger *slog.Logger) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	margin := 15.0
	pageWidth := 210.0
	return &Generator{
		images:       images,
		loc:          loc,
		logger:       logger,
		now:          time.Now,
		pageWidth:    pageWidth,
		pageHeight:   297.0,
		margin:       margin,
		contentWidth: pageWidth - 2*margin,
	}
}

// pdfDoc carries the state of one document being rendered.
type pdfDoc struct {
	*fpdf.Fpdf
	g      *Generator
	ctx    context.Context
	tr     func(string) string
	nImage int
}

func (g *Generator) newDoc(ctx context.Context, title string) *pdfDoc {
	pdf := fpdf.New("P", "mm", "A4", "")
	d := &pdfDoc{Fpdf: pdf, g: g, ctx: ctx, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetTitle(title, true)
	pdf.SetCreator("equipcheck", true)
	pdf.SetMargins(g.margin, 30, g.margin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	generated := FormatDateTime(g.now().In(g.loc))
	pdf.SetHeaderFuncMode(func() { d.header(title) }, true)
	pdf.SetFooterFunc(func() { d.footer(generated) })
	return d
}

// finish returns the document bytes or the first rendering error.
func (d *pdfDoc) finish() ([]byte, error) {
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("pdf generation error: %w", err)
	}
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output error: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Page Furniture
// =============================================================================

func (d *pdfDoc) header(title string) {
	g := d.g
	r, gr, b := HexToRGB(BrandColors.Navy)
	d.SetFillColor(r, gr, b)
	d.Rect(0, 0, g.pageWidth, 20, "F")

	d.SetTextColor(255, 255, 255)
	d.SetFont("Helvetica", "B", 14)
	d.SetXY(g.margin, 6)
	d.CellFormat(g.contentWidth, 8, d.tr(title), "", 0, "C", false, 0, "")

	d.setTextColor(BrandColors.TextDark)
}

func (d *pdfDoc) footer(generated string) {
	g := d.g
	d.SetY(-15)
	d.setDrawColor(BrandColors.Border)
	d.Line(g.margin, d.GetY()-2, g.pageWidth-g.margin, d.GetY()-2)

	d.setTextColor(BrandColors.TextMuted)
	d.SetFont("Helvetica", "", 8)
	d.CellFormat(g.contentWidth/2, 8, d.tr("Generado: "+generated), "", 0, "L", false, 0, "")
	d.CellFormat(g.contentWidth/2, 8, d.tr(fmt.Sprintf("Página %d de {nb}", d.PageNo())), "", 0, "R", false, 0, "")
	d.setTextColor(BrandColors.TextDark)
}

func (d *pdfDoc) sectionTitle(title string) {
	d.ensureSpace(16)
	d.Ln(2)
	d.setTextColor(BrandColors.Navy)
	d.SetFont("Helvetica", "B", 12)
	d.CellFormat(0, 8, d.tr(title), "", 1, "L", false, 0, "")
	d.setTextColor(BrandColors.TextDark)
	d.Ln(1)
}

func (d *pdfDoc) text(size float64, style, s string) {
	d.SetFont("Helvetica", style, size)
	d.MultiCell(d.g.contentWidth, 5, d.tr(s), "", "L", false)
}

// ensureSpace starts a new page when fewer than h mm remain.
func (d *pdfDoc) ensureSpace(h float64) {
	if d.GetY()+h > d.g.pageHeight-20 {
		d.AddPage()
	}
}

func (d *pdfDoc) setTextColor(hex string) {
	r, g, b := HexToRGB(hex)
	d.SetTextColor(r, g, b)
}

func (d *pdfDoc) setFillColor(hex string) {
	r, g, b := HexToRGB(hex)
	d.SetFillColor(r, g, b)
}

func (d *pdfDoc) setDrawColor(hex string) {
	r, g, b := HexToRGB(hex)
	d.SetDrawColor(r, g, b)
}

// =============================================================================
// Tables
// =============================================================================

// table draws rows of wrapped cells with a navy header repeated on every page.
type table struct {
	widths []float64
	header []string
	lineH  float64
	size   float64
}

func (d *pdfDoc) drawHeader(t table) {
	d.setFillColor(BrandColors.Navy)
	d.SetTextColor(255, 255, 255)
	d.SetFont("Helvetica", "B", t.size)
	for i, h := range t.header {
		d.CellFormat(t.widths[i], t.lineH+2, d.tr(h), "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)
	d.setTextColor(BrandColors.TextDark)
}

func (d *pdfDoc) drawTable(t table, rows [][]string) {
	d.ensureSpace(2 * (t.lineH + 2))
	d.drawHeader(t)
	d.SetFont("Helvetica", "", t.size)
	d.setDrawColor(BrandColors.Border)

	for _, row := range rows {
		cells := make([]string, len(row))
		lines := 1
		for i, c := range row {
			cells[i] = d.tr(c)
			if n := len(d.SplitLines([]byte(cells[i]), t.widths[i]-2)); n > lines {
				lines = n
			}
		}
		h := float64(lines)*t.lineH + 2

		if d.GetY()+h > d.g.pageHeight-20 {
			d.AddPage()
			d.drawHeader(t)
			d.SetFont("Helvetica", "", t.size)
		}

		x, y := d.GetX(), d.GetY()
		for i, c := range cells {
			d.Rect(x, y, t.widths[i], h, "D")
			d.SetXY(x+1, y+1)
			d.MultiCell(t.widths[i]-2, t.lineH, c, "", "L", false)
			x += t.widths[i]
		}
		d.SetXY(d.g.margin, y+h)
	}
}

// =============================================================================
// Charts
// =============================================================================

type bar struct {
	Label string
	Value int
	Color string
}

// barChart draws a vertical bar chart spanning the content width.
func (d *pdfDoc) barChart(title string, bars []bar) {
	const chartH = 55.0
	d.ensureSpace(chartH + 25)

	d.setTextColor(BrandColors.Navy)
	d.SetFont("Helvetica", "B", 10)
	d.CellFormat(0, 7, d.tr(title), "", 1, "L", false, 0, "")
	d.setTextColor(BrandColors.TextDark)

	if len(bars) == 0 {
		bars = []bar{{Label: "Sin datos"}}
	}
	maxV := 1
	for _, b := range bars {
		if b.Value > maxV {
			maxV = b.Value
		}
	}

	g := d.g
	top := d.GetY() + 4
	base := top + chartH
	d.setDrawColor(BrandColors.TextMuted)
	d.Line(g.margin, base, g.pageWidth-g.margin, base)

	slot := g.contentWidth / float64(len(bars))
	barW := slot * 0.6
	for i, b := range bars {
		x := g.margin + float64(i)*slot + (slot-barW)/2
		h := chartH * float64(b.Value) / float64(maxV)

		color := b.Color
		if color == "" {
			color = BrandColors.Navy
		}
		d.setFillColor(color)
		if h > 0 {
			d.Rect(x, base-h, barW, h, "F")
		}

		d.SetFont("Helvetica", "B", 7)
		d.SetXY(x, base-h-5)
		d.CellFormat(barW, 4, fmt.Sprint(b.Value), "", 0, "C", false, 0, "")

		d.SetFont("Helvetica", "", 6)
		label := d.tr(b.Label)
		for d.GetStringWidth(label) > slot-1 && len(label) > 3 {
			label = label[:len(label)-1]
		}
		d.SetXY(g.margin+float64(i)*slot, base+1)
		d.CellFormat(slot, 4, label, "", 0, "C", false, 0, "")
	}
	d.SetXY(g.margin, base+8)
}

// =============================================================================
// Images
// =============================================================================

// drawImage draws ref scaled to fit a w x h box at (x, y). Returns false when the
// image could not be loaded or decoded.
func (d *pdfDoc) drawImage(ref string, x, y, w, h float64) bool {
	if ref == "" || d.g.images == nil {
		return false
	}
	data, err := d.g.images.Load(d.ctx, ref)
	if err != nil {
		d.g.logger.Warn("document image unavailable", "ref", ref, "error", err)
		return false
	}
	jpeg, iw, ih, err := flatten(data)
	if err != nil {
		d.g.logger.Warn("document image unreadable", "ref", ref, "error", err)
		return false
	}

	d.nImage++
	name := fmt.Sprintf("img%d", d.nImage)
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	d.RegisterImageOptionsReader(name, opts, bytes.NewReader(jpeg))

	scale := min(w/float64(iw), h/float64(ih))
	dw, dh := float64(iw)*scale, float64(ih)*scale
	d.ImageOptions(name, x, y, dw, dh, false, opts, 0, "")
	return true
}

// flatten decodes any supported image, paints it over white and re-encodes
// it as a JPEG small enough to embed.
func flatten(data []byte) ([]byte, int, int, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, err
	}
	src = imaging.Fit(src, 800, 800, imaging.Lanczos)

	bounds := src.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	canvas = imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
