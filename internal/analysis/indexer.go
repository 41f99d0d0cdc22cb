package analysis

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"gridpulse/domain/core"
	"gridpulse/internal/errors"
	"gridpulse/ports"
)

// timeAliases are matched exactly (case-insensitive) before falling back to a
// substring scan, so a column literally named "timestamp" beats one named
// "update_time" regardless of position.
var timeAliases = map[string]bool{
	"datetime":  true,
	"date":      true,
	"time":      true,
	"timestamp": true,
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// BuildFrame turns a raw table into the indexed measurement series: rows with
// unparseable timestamps dropped, remaining rows sorted ascending and
// deduplicated by timestamp (first occurrence wins), and only numeric columns
// retained. It fails with a structural error when no date/time column or no
// numeric column can be found; there is no partial output.
func BuildFrame(table *ports.RawTable) (*core.Frame, error) {
	if table == nil || len(table.Headers) == 0 {
		return nil, errors.New(errors.CodeEmptyInput,
			core.NewStructuralError("indexer", core.ErrEmptyInput).Error())
	}

	timeCol := findTimeColumn(table.Headers)
	if timeCol < 0 {
		return nil, errors.New(errors.CodeNoTimeColumn,
			core.NewStructuralError("indexer", core.ErrNoTimeColumn).Error())
	}

	type row struct {
		ts    time.Time
		cells []string
	}
	rows := make([]row, 0, len(table.Rows))
	for _, cells := range table.Rows {
		if timeCol >= len(cells) {
			continue
		}
		ts, ok := parseTimestamp(cells[timeCol])
		if !ok {
			continue // unparseable timestamp drops the whole row
		}
		rows = append(rows, row{ts: ts, cells: cells})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ts.Before(rows[j].ts) })

	// Deduplicate by timestamp, keeping the first occurrence after the
	// stable sort (i.e. earliest input position among equals).
	deduped := rows[:0]
	for _, r := range rows {
		if len(deduped) > 0 && deduped[len(deduped)-1].ts.Equal(r.ts) {
			continue
		}
		deduped = append(deduped, r)
	}
	rows = deduped

	kept := make([][]string, len(rows))
	for i, r := range rows {
		kept[i] = r.cells
	}
	sensors := findNumericColumns(table.Headers, timeCol, kept)
	if len(sensors) == 0 {
		return nil, errors.New(errors.CodeNoNumericColumns,
			core.NewStructuralError("indexer", core.ErrNoNumericColumns).Error())
	}

	index := make([]time.Time, len(rows))
	for i, r := range rows {
		index[i] = r.ts
	}
	ids := make([]core.SensorID, len(sensors))
	for i, s := range sensors {
		ids[i] = core.SensorID(table.Headers[s])
	}

	frame := core.NewFrame(index, ids)
	for si, colIdx := range sensors {
		id := ids[si]
		for ri, r := range rows {
			if colIdx >= len(r.cells) {
				continue
			}
			if v, ok := parseNumber(r.cells[colIdx]); ok {
				frame.Set(id, ri, v)
			}
		}
	}
	return frame, nil
}

// findTimeColumn returns the index of the date/time column, or -1. Exact
// aliases win over substring matches; within each pass, first column wins.
func findTimeColumn(headers []string) int {
	for i, h := range headers {
		if timeAliases[strings.ToLower(h)] {
			return i
		}
	}
	for i, h := range headers {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
			return i
		}
	}
	return -1
}

// findNumericColumns returns indices of columns where every non-empty cell in
// the surviving rows parses as a number. All-empty columns count as numeric:
// they become fully-absent sensors rather than being silently discarded.
func findNumericColumns(headers []string, timeCol int, rows [][]string) []int {
	var numeric []int
	for col := range headers {
		if col == timeCol {
			continue
		}
		ok := true
		for _, cells := range rows {
			if col >= len(cells) {
				continue
			}
			cell := strings.TrimSpace(cells[col])
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				ok = false
				break
			}
		}
		if ok {
			numeric = append(numeric, col)
		}
	}
	return numeric
}

func parseTimestamp(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
