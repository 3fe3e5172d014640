package shift

import "sort"

// RecentWindow is the number of shifts shown on the dashboard chart
const RecentWindow = 7

// History is a driver's shifts in the order they were added
type History struct {
	shifts []*CalculatedShift
}

// NewHistory wraps an existing append-ordered list of shifts
func NewHistory(shifts []*CalculatedShift) *History {
	h := &History{shifts: make([]*CalculatedShift, 0, len(shifts))}
	h.shifts = append(h.shifts, shifts...)
	return h
}

// Append adds a shift at the end of the history
func (h *History) Append(s *CalculatedShift) {
	h.shifts = append(h.shifts, s)
}

func (h *History) Len() int {
	return len(h.shifts)
}

// Shifts returns a copy of the shifts in append order
func (h *History) Shifts() []*CalculatedShift {
	out := make([]*CalculatedShift, len(h.shifts))
	copy(out, h.shifts)
	return out
}

// Find returns the shift with the given ID
func (h *History) Find(id string) (*CalculatedShift, bool) {
	for _, s := range h.shifts {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Remove deletes the shift with the given ID and reports whether it existed
func (h *History) Remove(id string) bool {
	for i, s := range h.shifts {
		if s.ID == id {
			h.shifts = append(h.shifts[:i], h.shifts[i+1:]...)
			return true
		}
	}
	return false
}

// TotalCleanMoney sums clean money over all shifts
func (h *History) TotalCleanMoney() float64 {
	var total float64
	for _, s := range h.shifts {
		total += s.CleanMoney
	}
	return total
}

// AveragePercentage is the unweighted mean daily percentage, 0 when empty
func (h *History) AveragePercentage() float64 {
	if len(h.shifts) == 0 {
		return 0
	}
	var sum int
	for _, s := range h.shifts {
		sum += s.DailyPercentage
	}
	return float64(sum) / float64(len(h.shifts))
}

// Recent returns the last n shifts, oldest first
func (h *History) Recent(n int) []*CalculatedShift {
	if n <= 0 {
		return []*CalculatedShift{}
	}
	start := len(h.shifts) - n
	if start < 0 {
		start = 0
	}
	out := make([]*CalculatedShift, len(h.shifts)-start)
	copy(out, h.shifts[start:])
	return out
}

// Newest returns a copy of the shifts sorted by timestamp, newest first
func (h *History) Newest() []*CalculatedShift {
	out := h.Shifts()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ChartPoint is one bar pair on the dashboard chart
type ChartPoint struct {
	Label  string  `json:"label"`
	Income float64 `json:"income"`
	Clean  float64 `json:"clean"`
}

// Summary holds the dashboard figures
type Summary struct {
	ShiftCount        int          `json:"shiftCount"`
	TotalCleanMoney   float64      `json:"totalCleanMoney"`
	AveragePercentage float64      `json:"averagePercentage"`
	Chart             []ChartPoint `json:"chart"`
}

// Summarize builds the dashboard figures with a chart of the last n shifts
func (h *History) Summarize(n int) Summary {
	recent := h.Recent(n)
	chart := make([]ChartPoint, 0, len(recent))
	for _, s := range recent {
		chart = append(chart, ChartPoint{
			Label:  s.Timestamp.Format("Mon"),
			Income: s.ShiftTotalIncome,
			Clean:  s.CleanMoney,
		})
	}
	return Summary{
		ShiftCount:        h.Len(),
		TotalCleanMoney:   h.TotalCleanMoney(),
		AveragePercentage: h.AveragePercentage(),
		Chart:             chart,
	}
}
