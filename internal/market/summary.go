package market

// Summary counts records by the sign of their change.
type Summary struct {
	Total     int
	Gainers   int
	Losers    int
	Unchanged int
}

// Summarize classifies every record exactly once, so
// Gainers+Losers+Unchanged always equals Total. NaN counts as unchanged.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch {
		case r.Change > 0:
			s.Gainers++
		case r.Change < 0:
			s.Losers++
		default:
			s.Unchanged++
		}
	}
	return s
}
