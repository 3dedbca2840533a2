package report

import (
	"context"
	"fmt"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

// Checklist renders the checklist document of one report. defaultSupervisor
// is printed under the supervisor signature when the report carries no
// supervisor name.
func (g *Generator) Checklist(ctx context.Context, r *domain.Report, defaultSupervisor string) ([]byte, error) {
	d := g.newDoc(ctx, "CHECKLIST DE EQUIPO")
	d.AddPage()

	d.checklistInfo(r)
	d.Ln(6)
	d.checklistItems(r)

	d.Ln(4)
	general := r.GeneralObservation
	if general == "" {
		general = "NINGUNA"
	}
	d.SetFont("Helvetica", "B", 9)
	d.CellFormat(42, 5, d.tr("Observaciones generales:"), "", 0, "L", false, 0, "")
	d.SetFont("Helvetica", "", 9)
	d.MultiCell(g.contentWidth-42, 5, d.tr(general), "", "L", false)

	if evidence := r.EvidenceItems(); len(evidence) > 0 {
		d.Ln(4)
		d.sectionTitle("Fotos adjuntas (solo ítems con evidencia)")
		cells := make([]photoCell, len(evidence))
		for i, it := range evidence {
			cells[i] = photoCell{Lines: []string{it.Item, it.Section}, Ref: it.PhotoRef}
		}
		d.photoGrid(cells, 0, "")
	}

	d.AddPage()
	d.sectionTitle("Firmas")
	supervisor := r.SupervisorName
	if supervisor == "" {
		supervisor = defaultSupervisor
	}
	d.signatures(r.OperatorName, r.OperatorSignatureRef, supervisor, r.SupervisorSignatureRef)

	return d.finish()
}

func (d *pdfDoc) checklistInfo(r *domain.Report) {
	g := d.g
	approval := r.State.Label()
	if r.ApprovedAt != nil {
		approval += " " + FormatDateTime(r.ApprovedAt.In(g.loc))
	}

	grid := [][3][2]string{
		{{"Equipo", r.Equipment.Name}, {"Código", r.Equipment.Code}, {"Tipo", CategoryTitle(r.Equipment.Category)}},
		{{"Operador", r.OperatorName}, {"Horómetro", fmt.Sprint(r.MeterReading)}, {"Fecha", FormatDateTime(r.CreatedAt.In(g.loc))}},
		{{"Resultado", r.Disposition.Label()}, {"Estado", r.Condition.Label()}, {"Aprobación", approval}},
	}
	widths := [3]float64{70, 55, 55}

	d.setDrawColor(BrandColors.TextDark)
	for _, row := range grid {
		for i, cell := range row {
			d.SetFont("Helvetica", "B", 9)
			label := d.tr(cell[0] + ": ")
			lw := d.GetStringWidth(label)
			x, y := d.GetX(), d.GetY()
			d.Rect(x, y, widths[i], 8, "D")
			d.SetXY(x+2, y)
			d.CellFormat(lw, 8, label, "", 0, "L", false, 0, "")
			d.SetFont("Helvetica", "", 9)
			if i == 0 && cell[0] == "Resultado" {
				d.setTextColor(DispositionColor(r.Disposition))
				d.SetFont("Helvetica", "B", 9)
			}
			d.CellFormat(widths[i]-lw-4, 8, d.tr(cell[1]), "", 0, "L", false, 0, "")
			d.setTextColor(BrandColors.TextDark)
			d.SetXY(x+widths[i], y)
		}
		d.Ln(8)
	}
}

func (d *pdfDoc) checklistItems(r *domain.Report) {
	t := table{
		widths: []float64{50, 60, 35, 35},
		header: []string{"Sección", "Ítem", "Estado", "Observación"},
		lineH:  4.5,
		size:   8,
	}
	rows := make([][]string, len(r.Items))
	for i, it := range r.Items {
		rows[i] = []string{it.Section, it.Item, it.Status.Label(), orDash(it.Observation)}
	}
	d.drawTable(t, rows)
}

// =============================================================================
// Shared Blocks
// =============================================================================

// photoCell is one captioned image in a photo grid.
type photoCell struct {
	Lines []string // first line bold
	Ref   string
}

// photoGrid lays cells out two per row. When rowsPerPage is positive a new
// page titled continued starts after that many rows.
func (d *pdfDoc) photoGrid(cells []photoCell, rowsPerPage int, continued string) {
	const (
		cellW = 90.0
		imgW  = 80.0
		imgH  = 45.0
	)
	g := d.g
	captionH := 4.5 * float64(maxLines(cells))
	cellH := captionH + imgH + 6

	rows := 0
	for i := 0; i < len(cells); i += 2 {
		if rowsPerPage > 0 && rows == rowsPerPage {
			d.AddPage()
			d.sectionTitle(continued)
			rows = 0
		}
		d.ensureSpace(cellH)
		y := d.GetY()

		for j := 0; j < 2 && i+j < len(cells); j++ {
			c := cells[i+j]
			x := g.margin + float64(j)*cellW
			d.setDrawColor(BrandColors.Border)
			d.Rect(x, y, cellW, cellH, "D")

			d.SetXY(x+3, y+2)
			for k, line := range c.Lines {
				style := ""
				if k == 0 {
					style = "B"
				}
				d.SetFont("Helvetica", style, 8)
				d.SetX(x + 3)
				d.CellFormat(cellW-6, 4.5, d.tr(line), "", 2, "L", false, 0, "")
			}

			if !d.drawImage(c.Ref, x+5, y+captionH+4, imgW, imgH) {
				d.SetXY(x+3, y+captionH+4)
				d.SetFont("Helvetica", "I", 8)
				d.setTextColor(BrandColors.TextMuted)
				d.CellFormat(cellW-6, 6, d.tr("Foto no disponible"), "", 0, "L", false, 0, "")
				d.setTextColor(BrandColors.TextDark)
			}
		}
		d.SetXY(g.margin, y+cellH)
		rows++
	}
}

func maxLines(cells []photoCell) int {
	n := 1
	for _, c := range cells {
		if len(c.Lines) > n {
			n = len(c.Lines)
		}
	}
	return n
}

// signatures draws the operator and supervisor signature boxes side by side.
func (d *pdfDoc) signatures(operator, operatorRef, supervisor, supervisorRef string) {
	const (
		colW = 90.0
		boxH = 34.0
	)
	g := d.g

	d.setFillColor(BrandColors.Navy)
	d.SetTextColor(255, 255, 255)
	d.SetFont("Helvetica", "B", 9)
	d.CellFormat(colW, 8, d.tr("Firma Operador"), "1", 0, "C", true, 0, "")
	d.CellFormat(colW, 8, d.tr("Firma Supervisor"), "1", 1, "C", true, 0, "")
	d.setTextColor(BrandColors.TextDark)

	y := d.GetY()
	for i, ref := range []string{operatorRef, supervisorRef} {
		x := g.margin + float64(i)*colW
		d.setDrawColor(BrandColors.TextMuted)
		d.Rect(x, y, colW, boxH, "D")
		if !d.drawImage(ref, x+5, y+3, 80, 28) {
			d.SetXY(x, y+boxH/2-3)
			d.SetFont("Helvetica", "", 9)
			d.CellFormat(colW, 6, "-", "", 0, "C", false, 0, "")
		}
	}

	d.SetXY(g.margin, y+boxH)
	d.SetFont("Helvetica", "", 9)
	d.CellFormat(colW, 8, d.tr(operator), "1", 0, "C", false, 0, "")
	d.CellFormat(colW, 8, d.tr(supervisor), "1", 1, "C", false, 0, "")
}
