package shift

import "time"

// RawShiftData holds the numeric fields read from an end-of-shift summary
type RawShiftData struct {
	TotalAmount    float64 `json:"totalAmount"`
	PaidInCareem   float64 `json:"paidInCareem"`
	TotalHiredKm   float64 `json:"totalHiredKm"`
	VacantKm       float64 `json:"vacantKm"`
	TotalTrip      float64 `json:"totalTrip"`
	BookingTrip    float64 `json:"bookingTrip"`
	TollwayAmount  float64 `json:"tollwayAmount"`
	HalaPackAmount float64 `json:"halaPackAmount"`
	OtherExpenses  float64 `json:"otherExpenses"`
	Date           string  `json:"date"` // free-form, usually YYYY-MM-DD
}

// Expenses is the itemized cost breakdown of a shift
type Expenses struct {
	Fuel       float64 `json:"fuel"`
	Booking    float64 `json:"booking"`
	NormalTrip float64 `json:"normalTrip"`
	Tollway    float64 `json:"tollway"`
	HalaPack   float64 `json:"halaPack"`
	Other      float64 `json:"other"`
}

// Total returns the sum of all expense items
func (e Expenses) Total() float64 {
	return e.Fuel + e.Booking + e.NormalTrip + e.Tollway + e.HalaPack + e.Other
}

// CalculatedShift is the derived financial result for one shift.
// It is created once by a Calculator and never modified afterwards.
type CalculatedShift struct {
	ID               string       `json:"id"`
	Raw              RawShiftData `json:"raw"`
	ShiftTotalIncome float64      `json:"shiftTotalIncome"`
	Expenses         Expenses     `json:"expenses"`
	TotalExpense     float64      `json:"totalExpense"`
	CleanMoney       float64      `json:"cleanMoney"`
	DailyPercentage  int          `json:"dailyPercentage"`
	Timestamp        time.Time    `json:"timestamp"`
	ReceiptFile      string       `json:"receiptFile,omitempty"` // archived photo, if any
}
