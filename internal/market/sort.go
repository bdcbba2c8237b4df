package market

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// Column is a sortable table column.
type Column int

const (
	ColumnName Column = iota
	ColumnPrice
	ColumnChange
	ColumnChangePercent
	ColumnVolume
)

// Columns lists the sortable columns in table order.
var Columns = []Column{ColumnName, ColumnPrice, ColumnChange, ColumnChangePercent, ColumnVolume}

func (c Column) String() string {
	switch c {
	case ColumnName:
		return "name"
	case ColumnPrice:
		return "price"
	case ColumnChange:
		return "change"
	case ColumnChangePercent:
		return "changePercent"
	case ColumnVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// Direction is the sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortState is the active column and direction of the table.
type SortState struct {
	Column    Column
	Direction Direction
}

// DefaultSort sorts by name ascending.
func DefaultSort() SortState {
	return SortState{Column: ColumnName, Direction: Ascending}
}

// Toggle returns the state after the user selects col.
// Selecting the active column flips direction; a new column starts ascending.
func (s SortState) Toggle(col Column) SortState {
	if s.Column == col {
		if s.Direction == Ascending {
			s.Direction = Descending
		} else {
			s.Direction = Ascending
		}
		return s
	}
	return SortState{Column: col, Direction: Ascending}
}

// Sorted returns a sorted copy of records. The input is not modified.
func Sorted(records []Record, state SortState) []Record {
	out := append([]Record(nil), records...)
	slices.SortStableFunc(out, func(a, b Record) int {
		c := compare(a, b, state.Column)
		if state.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}

func compare(a, b Record, col Column) int {
	switch col {
	case ColumnPrice:
		return compareFloat(a.Price, b.Price)
	case ColumnChange:
		return compareFloat(a.Change, b.Change)
	case ColumnChangePercent:
		return compareFloat(a.ChangePercent, b.ChangePercent)
	case ColumnVolume:
		return compareVolume(a.Volume, b.Volume)
	default:
		return strings.Compare(strings.ToLower(a.SortName()), strings.ToLower(b.SortName()))
	}
}

// NaN sorts below every number.
func compareFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	return cmp.Compare(a, b)
}

// Absent volumes sort below every present one.
func compareVolume(a, b Volume) int {
	av, aok := a.Value()
	bv, bok := b.Value()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	return compareFloat(av, bv)
}

// Filter keeps records of the given category. An empty category keeps all.
func Filter(records []Record, category Category) []Record {
	if category == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.EqualFold(string(r.Category), string(category)) {
			out = append(out, r)
		}
	}
	return out
}

// Categories returns the distinct categories of records in first-seen order.
func Categories(records []Record) []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, r := range records {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	return out
}
