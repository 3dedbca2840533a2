package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

// topN is the length of the equipment and operator rankings.
const topN = 10

// faultPhotoRows is the number of photo grid rows per page.
const faultPhotoRows = 6

// FaultPhoto is one piece of evidence shown in the management report.
type FaultPhoto struct {
	Date          time.Time
	EquipmentCode string
	EquipmentName string
	Section       string
	Item          string
	Ref           string
}

// SummaryInput is everything the management report prints.
type SummaryInput struct {
	Start          time.Time
	End            time.Time
	SupervisorName string
	Summary        *domain.Summary
	Reports        []domain.Report
	Photos         []FaultPhoto
}

// Management renders the management report for a date range.
func (g *Generator) Management(ctx context.Context, in SummaryInput) ([]byte, error) {
	s := in.Summary
	if s == nil {
		s = domain.Summarize(nil, nil)
	}

	d := g.newDoc(ctx, "INFORME GERENCIA - CHECKLIST EQUIPOS")
	d.AddPage()

	d.SetFont("Helvetica", "", 9)
	d.CellFormat(0, 6, d.tr(fmt.Sprintf("Rango: %s a %s  |  Supervisor: %s",
		in.Start.Format(domain.DateLayout), in.End.Format(domain.DateLayout), in.SupervisorName)), "", 1, "L", false, 0, "")
	d.Ln(3)

	d.kpis(s)
	d.Ln(6)

	results := make([]bar, 0, len(domain.Dispositions))
	for _, disp := range domain.Dispositions {
		results = append(results, bar{Label: disp.Label(), Value: s.Dispositions[disp], Color: DispositionColor(disp)})
	}
	d.barChart("Resultados", results)
	d.barChart("Top equipos (envíos)", rankBars(domain.Top(s.TopEquipment, topN), true))

	d.AddPage()
	d.sectionTitle("Dashboard adicional")
	d.barChart("Top operadores (envíos)", rankBars(domain.Top(s.TopOperators, topN), false))

	trend := s.Trend()
	days := make([]bar, len(trend))
	for i, dc := range trend {
		days[i] = bar{Label: dc.Date.Format("02/01"), Value: dc.Count}
	}
	d.barChart(fmt.Sprintf("Envíos por día (últimos %d)", domain.TrendDays), days)

	d.sectionTitle("Detalle de registros (rango)")
	d.records(in.Reports)

	if len(in.Photos) > 0 {
		d.AddPage()
		d.sectionTitle("Fotos de fallas (rango seleccionado)")
		d.text(8, "", "Evidencia adjunta (útil para compras/repuestos).")
		d.Ln(3)

		cells := make([]photoCell, len(in.Photos))
		for i, p := range in.Photos {
			cells[i] = photoCell{
				Lines: []string{
					fmt.Sprintf("%s (%s)", p.EquipmentName, p.EquipmentCode),
					p.Date.Format(domain.DateLayout),
					p.Section,
					p.Item,
				},
				Ref: p.Ref,
			}
		}
		d.photoGrid(cells, faultPhotoRows, "Fotos de fallas (continuación)")
	}

	return d.finish()
}

func (d *pdfDoc) kpis(s *domain.Summary) {
	labels := []string{"Informes", "Operadores", "Equipos (Total)", "Equipos con envío", "Equipos sin envío", "Fallas"}
	values := []int{s.Total, s.DistinctOperators, s.CatalogSize, s.EquipmentWithSubmission, s.EquipmentWithoutSubmission, s.FaultCount}
	w := d.g.contentWidth / float64(len(labels))

	d.setFillColor(BrandColors.Navy)
	d.SetTextColor(255, 255, 255)
	d.SetFont("Helvetica", "B", 8)
	for _, l := range labels {
		d.CellFormat(w, 8, d.tr(l), "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)

	d.setTextColor(BrandColors.TextDark)
	d.SetFont("Helvetica", "B", 12)
	for _, v := range values {
		d.CellFormat(w, 10, fmt.Sprint(v), "1", 0, "C", false, 0, "")
	}
	d.Ln(-1)
}

// records prints one row per report, newest calendar day first.
func (d *pdfDoc) records(reports []domain.Report) {
	sorted := append([]domain.Report(nil), reports...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedDate.After(sorted[j].CreatedDate)
	})

	rows := make([][]string, len(sorted))
	for i, r := range sorted {
		rows[i] = []string{
			r.CreatedDate.Format(domain.DateLayout),
			r.OperatorName,
			r.Equipment.Name,
			r.Equipment.Code,
			r.Condition.Label(),
			r.Disposition.Label(),
		}
	}
	if len(rows) == 0 {
		d.text(9, "I", "Sin registros en el rango seleccionado.")
		return
	}

	d.drawTable(table{
		widths: []float64{22, 38, 55, 18, 24, 23},
		header: []string{"Fecha", "Operador", "Equipo", "Código", "Estado", "Resultado"},
		lineH:  4,
		size:   7.5,
	}, rows)
}

func rankBars(entries []domain.RankEntry, byKey bool) []bar {
	out := make([]bar, len(entries))
	for i, e := range entries {
		label := e.Label
		if byKey || label == "" {
			label = e.Key
		}
		out[i] = bar{Label: label, Value: e.Count}
	}
	return out
}
