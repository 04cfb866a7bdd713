package core

// PersonTotal is the sum of one contributor's amounts within a filter.
type PersonTotal struct {
	Name  string
	Total float64
}

// MonthFilter selects contributions by month key. All disables filtering.
type MonthFilter struct {
	Month MonthKey
	All   bool
}

// ForMonth returns a filter matching a single month.
func ForMonth(k MonthKey) MonthFilter {
	return MonthFilter{Month: k}
}

// AllMonths returns a filter matching every contribution.
func AllMonths() MonthFilter {
	return MonthFilter{All: true}
}

// Matches reports whether c falls inside the filter.
func (f MonthFilter) Matches(c Contribution) bool {
	return f.All || c.MonthYear == f.Month
}

// Label is the month shown to users for this filter.
func (f MonthFilter) Label() string {
	if f.All {
		return "all"
	}
	return string(f.Month)
}

// MonthOverview bundles the list and summary views of one filter.
type MonthOverview struct {
	Filter        MonthFilter
	Contributions []Contribution
	Summary       []PersonTotal
}

// Summarize groups contributions by raw name and sums their amounts.
// Rows keep the order in which each name first appears.
func Summarize(cs []Contribution) []PersonTotal {
	totals := []PersonTotal{}
	index := make(map[string]int)
	for _, c := range cs {
		i, ok := index[c.Name]
		if !ok {
			i = len(totals)
			index[c.Name] = i
			totals = append(totals, PersonTotal{Name: c.Name})
		}
		totals[i].Total += c.Amount
	}
	return totals
}
