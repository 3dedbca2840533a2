// Package report renders the inspection checklist and the management summary
// as PDF documents.
//
// Evidence images are fetched through an ImageLoader so rendering can be
// tested without blob storage. A missing or unreadable image never fails a
// document; a placeholder is drawn instead.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/storage"
)

// =============================================================================
// Image Loading
// =============================================================================

// ImageLoader fetches a stored image by its reference.
type ImageLoader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// maxImageBytes bounds how much of a stored object is read into a document.
const maxImageBytes = 10 << 20

// StorageImageLoader reads images from blob storage.
type StorageImageLoader struct {
	Storage storage.Storage
}

// Load reads the object at ref.
func (l StorageImageLoader) Load(ctx context.Context, ref string) ([]byte, error) {
	rc, _, err := l.Storage.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, storage.ErrTooLarge
	}
	return data, nil
}

// =============================================================================
// Brand Colors
// =============================================================================

// BrandColors defines the palette shared by both documents.
var BrandColors = struct {
	Navy       string
	TextDark   string
	TextMuted  string
	Border     string
	Background string
}{
	Navy:       "#0B2A5A",
	TextDark:   "#1F2937",
	TextMuted:  "#6B7280",
	Border:     "#D1D5DB",
	Background: "#F3F4F6",
}

// DispositionColors maps each disposition to its chart and badge color.
var DispositionColors = map[domain.Disposition]string{
	domain.DispositionFit:        "#16A34A",
	domain.DispositionRestricted: "#F59E0B",
	domain.DispositionUnfit:      "#DC2626",
}

// DispositionColor returns the color for a disposition.
func DispositionColor(d domain.Disposition) string {
	if c, ok := DispositionColors[d]; ok {
		return c
	}
	return BrandColors.TextMuted
}

// HexToRGB converts "#RRGGBB" to its components. Malformed input is black.
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0
	}
	return r, g, b
}

// =============================================================================
// Names and Formatting
// =============================================================================

// ChecklistName returns the file name of a report's checklist document.
func ChecklistName(r *domain.Report) string {
	return fmt.Sprintf("CHECKLIST_%s_%s.pdf", r.Equipment.Code, r.CreatedDate.Format(domain.DateLayout))
}

// SummaryName returns the file name of a management report.
func SummaryName(start, end time.Time) string {
	return fmt.Sprintf("INFORME_GERENCIA_%s_%s.pdf", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
}

var spanishTitle = cases.Title(language.Spanish)

// CategoryTitle returns the category label in title case ("Apilador").
func CategoryTitle(c domain.EquipmentCategory) string {
	return spanishTitle.String(c.Label())
}

// FormatDate formats a calendar day for documents.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatDateTime formats a timestamp for documents.
func FormatDateTime(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// orDash returns "-" for blank text.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
