// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package export

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// emptySheet names the only sheet of a workbook without schedule rows.
const emptySheet = "no data"

// ScheduleRow is one pivoted workbook row.
type ScheduleRow struct {
	Brand   models.Brand
	Region  string
	Theater string
	Screen  string
	Date    string // YYYY-MM-DD
	Slots   []string
}

// ScheduleSheet holds the rows of one date.
type ScheduleSheet struct {
	Date     string
	Rows     []ScheduleRow
	MaxSlots int
}

// BuildScheduleSheets groups showtimes by date and (brand, theater, screen),
// sorts each group's showtimes by start time and orders rows for reporting.
// Sheets are returned in date order.
func (e *Exporter) BuildScheduleSheets(rows []*models.Showtime, regions *RegionResolver) []ScheduleSheet {
	type groupKey struct {
		brand   models.Brand
		theater string
		screen  string
		date    string
	}
	groups := make(map[groupKey][]*models.Showtime)
	for _, st := range rows {
		k := groupKey{
			brand:   st.Brand,
			theater: st.Theater,
			screen:  st.Screen,
			date:    st.StartTime.In(e.loc).Format("2006-01-02"),
		}
		groups[k] = append(groups[k], st)
	}

	byDate := make(map[string]*ScheduleSheet)
	for k, showtimes := range groups {
		sort.SliceStable(showtimes, func(i, j int) bool {
			return showtimes[i].StartTime.Before(showtimes[j].StartTime)
		})
		slots := make([]string, len(showtimes))
		for i, st := range showtimes {
			slots[i] = fmt.Sprintf("%s %s", st.StartTime.In(e.loc).Format("15:04"), st.MovieTitle)
		}

		sheet, ok := byDate[k.date]
		if !ok {
			sheet = &ScheduleSheet{Date: k.date}
			byDate[k.date] = sheet
		}
		sheet.Rows = append(sheet.Rows, ScheduleRow{
			Brand:   k.brand,
			Region:  regions.Resolve(k.brand, k.theater),
			Theater: k.theater,
			Screen:  k.screen,
			Date:    k.date,
			Slots:   slots,
		})
		if len(slots) > sheet.MaxSlots {
			sheet.MaxSlots = len(slots)
		}
	}

	sheets := make([]ScheduleSheet, 0, len(byDate))
	for _, s := range byDate {
		sort.Slice(s.Rows, func(i, j int) bool { return rowLess(s.Rows[i], s.Rows[j]) })
		sheets = append(sheets, *s)
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].Date < sheets[j].Date })
	return sheets
}

// rowLess orders by brand rank, region, theater, then screen number.
func rowLess(a, b ScheduleRow) bool {
	if ra, rb := a.Brand.SortRank(), b.Brand.SortRank(); ra != rb {
		return ra < rb
	}
	if a.Brand != b.Brand {
		return a.Brand < b.Brand
	}
	if a.Region != b.Region {
		return a.Region < b.Region
	}
	if a.Theater != b.Theater {
		return a.Theater < b.Theater
	}
	return screenLess(a.Screen, b.Screen)
}

// screenLess compares screens by leading number when both have one.
func screenLess(a, b string) bool {
	na, okA := leadingNumber(a)
	nb, okB := leadingNumber(b)
	if okA && okB && na != nb {
		return na < nb
	}
	return a < b
}

func leadingNumber(s string) (int, bool) {
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == 0 {
		return 0, false
	}
	if end < 0 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

// ExportSchedule writes the schedule workbook for runID and returns its path.
func (e *Exporter) ExportSchedule(ctx context.Context, runID string, rows []*models.Showtime, regions *RegionResolver) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sheets := e.BuildScheduleSheets(rows, regions)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	if len(sheets) == 0 {
		if err := writeSheet(f, emptySheet, true, scheduleHeader(0), nil); err != nil {
			return "", err
		}
	}
	for i, s := range sheets {
		data := make([][]any, len(s.Rows))
		for j, r := range s.Rows {
			row := []any{string(r.Brand), r.Region, r.Theater, r.Screen, r.Date}
			for _, slot := range r.Slots {
				row = append(row, slot)
			}
			data[j] = row
		}
		if err := writeSheet(f, s.Date, i == 0, scheduleHeader(s.MaxSlots), data); err != nil {
			return "", err
		}
	}

	dest := e.ArtifactPath(runID, KindSchedule)
	if err := save(f, dest); err != nil {
		return "", err
	}
	metrics.ExportArtifacts.WithLabelValues(KindSchedule).Inc()
	logging.Ctx(ctx).Info().Str("path", dest).Int("sheets", len(sheets)).Int("showtimes", len(rows)).Msg("Schedule workbook written")
	return dest, nil
}

func scheduleHeader(slots int) []any {
	header := []any{"brand", "region", "theater", "screen", "date"}
	for i := 1; i <= slots; i++ {
		header = append(header, fmt.Sprintf("%d회", i))
	}
	return header
}
