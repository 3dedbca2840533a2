package domain

import (
	"sort"
	"strings"
	"time"
)

// TrendDays caps the by-day series when it is rendered as a trend.
const TrendDays = 14

// =============================================================================
// Date Range
// =============================================================================

// DateRange is an inclusive range of calendar days. The zero value covers
// all time.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// AllTime returns an unbounded range.
func AllTime() DateRange {
	return DateRange{}
}

// NewDateRange builds an inclusive range. Times are truncated to their
// calendar day.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s := DateOf(start, start.Location())
	e := DateOf(end, end.Location())
	if s.After(e) {
		return DateRange{}, Invalid("summary.range", "start date must not be after end date")
	}
	return DateRange{Start: s, End: e}, nil
}

// Daily covers today only.
func Daily(today time.Time) DateRange {
	d := DateOf(today, today.Location())
	return DateRange{Start: d, End: d}
}

// Weekly covers the seven days before today and today.
func Weekly(today time.Time) DateRange {
	d := DateOf(today, today.Location())
	return DateRange{Start: d.AddDate(0, 0, -7), End: d}
}

// Monthly covers the thirty days before today and today.
func Monthly(today time.Time) DateRange {
	d := DateOf(today, today.Location())
	return DateRange{Start: d.AddDate(0, 0, -30), End: d}
}

// Range presets, relative to today.
const (
	RangeDaily   = "daily"
	RangeWeekly  = "weekly"
	RangeMonthly = "monthly"
	RangeAll     = "all"
)

// ParseRange resolves a preset or an explicit YYYY-MM-DD start and end
// against today. Explicit dates win over the preset and must come in pairs.
// An empty preset means daily.
func ParseRange(preset, start, end string, today time.Time) (DateRange, error) {
	const op = "domain.ParseRange"

	if start != "" || end != "" {
		if start == "" || end == "" {
			return DateRange{}, NewValidationError(op, "range", "Both start and end are required")
		}
		s, err := time.Parse(DateLayout, start)
		if err != nil {
			return DateRange{}, NewValidationError(op, "start", "Use YYYY-MM-DD")
		}
		e, err := time.Parse(DateLayout, end)
		if err != nil {
			return DateRange{}, NewValidationError(op, "end", "Use YYYY-MM-DD")
		}
		return NewDateRange(s, e)
	}

	switch strings.ToLower(strings.TrimSpace(preset)) {
	case "", RangeDaily:
		return Daily(today), nil
	case RangeWeekly:
		return Weekly(today), nil
	case RangeMonthly:
		return Monthly(today), nil
	case RangeAll:
		return AllTime(), nil
	}
	return DateRange{}, NewValidationError(op, "range", "Range must be daily, weekly, monthly or all")
}

// IsAllTime returns true for the unbounded range.
func (r DateRange) IsAllTime() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether the calendar day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	if !r.Start.IsZero() && day.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && day.After(r.End) {
		return false
	}
	return true
}

// FilterByDate returns the reports whose creation date falls in the range.
// The input slice is not modified.
func FilterByDate(reports []Report, r DateRange) []Report {
	if r.IsAllTime() {
		return reports
	}
	out := make([]Report, 0, len(reports))
	for _, rep := range reports {
		if r.Contains(rep.CreatedDate) {
			out = append(out, rep)
		}
	}
	return out
}

// =============================================================================
// Summary
// =============================================================================

// RankEntry is one row of a submission ranking.
type RankEntry struct {
	Key   string
	Label string
	Count int
}

// DayCount is the number of submissions on one calendar day.
type DayCount struct {
	Date  time.Time
	Count int
}

// Summary is the aggregate view over a set of reports.
type Summary struct {
	Range                      DateRange
	Total                      int
	DistinctOperators          int
	EquipmentWithSubmission    int
	EquipmentWithoutSubmission int
	CatalogSize                int
	Dispositions               map[Disposition]int
	FaultCount                 int
	TopEquipment               []RankEntry
	TopOperators               []RankEntry
	FaultsByEquipment          []RankEntry
	ByDay                      []DayCount
	Idle                       []EquipmentDescriptor
}

// Trend returns the most recent TrendDays entries of the by-day series.
func (s *Summary) Trend() []DayCount {
	if len(s.ByDay) <= TrendDays {
		return s.ByDay
	}
	return s.ByDay[len(s.ByDay)-TrendDays:]
}

// Top returns at most n entries of a ranking.
func Top(entries []RankEntry, n int) []RankEntry {
	if n < 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}

// Summarize aggregates a caller-selected set of reports against the catalog.
// It does not filter by date and never mutates its input.
func Summarize(reports []Report, catalog *Catalog) *Summary {
	s := &Summary{
		Total: len(reports),
		Dispositions: map[Disposition]int{
			DispositionFit:        0,
			DispositionRestricted: 0,
			DispositionUnfit:      0,
		},
	}

	operators := make(map[string]bool)
	equipment := make(map[string]*RankEntry)
	operatorRank := make(map[string]*RankEntry)
	faults := make(map[string]*RankEntry)
	days := make(map[time.Time]int)

	for _, r := range reports {
		operators[r.OperatorUser] = true

		bump(equipment, r.Equipment.Code, equipmentLabel(r.Equipment))
		bump(operatorRank, r.OperatorUser, r.OperatorName)

		if r.Disposition.IsValid() {
			s.Dispositions[r.Disposition]++
		}
		if r.Condition.IsFault() {
			s.FaultCount++
			bump(faults, r.Equipment.Code, equipmentLabel(r.Equipment))
		}
		y, m, d := r.CreatedDate.Date()
		days[time.Date(y, m, d, 0, 0, 0, 0, time.UTC)]++
	}

	s.DistinctOperators = len(operators)
	s.TopEquipment = ranking(equipment)
	s.TopOperators = ranking(operatorRank)
	s.FaultsByEquipment = ranking(faults)

	for day, n := range days {
		s.ByDay = append(s.ByDay, DayCount{Date: day, Count: n})
	}
	sort.Slice(s.ByDay, func(i, j int) bool {
		return s.ByDay[i].Date.Before(s.ByDay[j].Date)
	})

	if catalog != nil {
		s.CatalogSize = catalog.Size()
		for _, e := range catalog.Equipment() {
			if _, ok := equipment[e.Code]; ok {
				s.EquipmentWithSubmission++
			} else {
				s.Idle = append(s.Idle, e)
			}
		}
		s.EquipmentWithoutSubmission = s.CatalogSize - s.EquipmentWithSubmission
	} else {
		s.EquipmentWithSubmission = len(equipment)
	}

	return s
}

func bump(m map[string]*RankEntry, key, label string) {
	e, ok := m[key]
	if !ok {
		e = &RankEntry{Key: key, Label: label}
		m[key] = e
	}
	e.Count++
}

// ranking orders entries by count descending, then key ascending.
func ranking(m map[string]*RankEntry) []RankEntry {
	out := make([]RankEntry, 0, len(m))
	for _, e := range m {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func equipmentLabel(e EquipmentDescriptor) string {
	if e.Name == "" {
		return e.Code
	}
	if strings.Contains(e.Name, "("+e.Code+")") {
		return e.Name
	}
	return e.Name + " (" + e.Code + ")"
}
