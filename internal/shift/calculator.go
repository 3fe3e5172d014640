package shift

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	FuelCostPerKm          = 0.59
	BookingTripExpenseUnit = 8.0
	NormalTripExpenseUnit  = 2.5

	// RateCapThreshold is the clean money at and above which RateCap applies,
	// whatever the tier table says.
	RateCapThreshold = 2000.0
	RateCap          = 37
)

// ErrInvalidInput is returned when a raw shift carries a value that cannot
// take part in the calculation.
var ErrInvalidInput = errors.New("invalid shift data")

// Tier maps the half-open clean money interval [Min, Max) to a rate in percent
type Tier struct {
	Min  float64
	Max  float64
	Rate int
}

// PercentageTiers is ordered ascending and the intervals are disjoint
var PercentageTiers = []Tier{
	{Min: 120, Max: 170, Rate: 5},
	{Min: 170, Max: 220, Rate: 10},
	{Min: 220, Max: 270, Rate: 15},
	{Min: 270, Max: 320, Rate: 20},
	{Min: 320, Max: 370, Rate: 25},
	{Min: 370, Max: 420, Rate: 30},
	{Min: 420, Max: 470, Rate: 35},
	{Min: 470, Max: 520, Rate: 36},
	{Min: 520, Max: 2000, Rate: 37},
}

// DailyPercentage returns the commission rate for the given clean money
func DailyPercentage(cleanMoney float64) int {
	if cleanMoney >= RateCapThreshold {
		return RateCap
	}
	for _, tier := range PercentageTiers {
		if cleanMoney >= tier.Min && cleanMoney < tier.Max {
			return tier.Rate
		}
	}
	return 0
}

// IDGenerator generates unique IDs for shifts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator issues time-ordered UUIDv7 identifiers
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Calculator turns raw shift data into a CalculatedShift
type Calculator struct {
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewCalculator creates a Calculator with UUID identifiers and wall-clock time
func NewCalculator() *Calculator {
	return &Calculator{
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewCalculatorWithDeps creates a Calculator with custom dependencies for testing
func NewCalculatorWithDeps(idGen IDGenerator, timeSrc TimeSource) *Calculator {
	return &Calculator{
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Validate rejects numeric fields that are NaN or infinite.
// Negative values pass: the receipt is taken as printed.
func Validate(raw RawShiftData) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"totalAmount", raw.TotalAmount},
		{"paidInCareem", raw.PaidInCareem},
		{"totalHiredKm", raw.TotalHiredKm},
		{"vacantKm", raw.VacantKm},
		{"totalTrip", raw.TotalTrip},
		{"bookingTrip", raw.BookingTrip},
		{"tollwayAmount", raw.TollwayAmount},
		{"halaPackAmount", raw.HalaPackAmount},
		{"otherExpenses", raw.OtherExpenses},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, f.name)
		}
	}
	return nil
}

// Calculate derives income, expenses, clean money and the daily percentage
func (c *Calculator) Calculate(raw RawShiftData) (*CalculatedShift, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	income := raw.TotalAmount + raw.PaidInCareem

	// NormalTrip goes negative when BookingTrip > TotalTrip; left as is.
	expenses := Expenses{
		Fuel:       raw.TotalHiredKm * FuelCostPerKm,
		Booking:    raw.BookingTrip * BookingTripExpenseUnit,
		NormalTrip: (raw.TotalTrip - raw.BookingTrip) * NormalTripExpenseUnit,
		Tollway:    raw.TollwayAmount,
		HalaPack:   raw.HalaPackAmount,
		Other:      raw.OtherExpenses,
	}
	totalExpense := expenses.Total()
	cleanMoney := income - totalExpense

	return &CalculatedShift{
		ID:               c.idGenerator.Generate(),
		Raw:              raw,
		ShiftTotalIncome: income,
		Expenses:         expenses,
		TotalExpense:     totalExpense,
		CleanMoney:       cleanMoney,
		DailyPercentage:  DailyPercentage(cleanMoney),
		Timestamp:        c.timeSource.Now(),
	}, nil
}

// FormatAED formats an amount the way it is shown to drivers
func FormatAED(amount float64) string {
	return fmt.Sprintf("AED %.2f", amount)
}
