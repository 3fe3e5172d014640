package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/taxishift/internal/shift"
)

const dateLayout = "2006-01-02"

// dateLayouts are tried in order when the model does not return ISO dates
var dateLayouts = []string{
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z07:00",
}

// amount accepts a JSON number, a numeric string such as "AED 1,250.50", or null
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.NewReplacer("AED", "", ",", "", " ", "").Replace(strings.ToUpper(s)))
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing amount %q: %w", s, err)
		}
		*a = amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = amount(f)
	return nil
}

// shiftJSON mirrors the object the models are asked to return
type shiftJSON struct {
	TotalAmount    amount `json:"totalAmount"`
	PaidInCareem   amount `json:"paidInCareem"`
	TotalHiredKm   amount `json:"totalHiredKm"`
	VacantKm       amount `json:"vacantKm"`
	TotalTrip      amount `json:"totalTrip"`
	BookingTrip    amount `json:"bookingTrip"`
	TollwayAmount  amount `json:"tollwayAmount"`
	HalaPackAmount amount `json:"halaPackAmount"`
	OtherExpenses  amount `json:"otherExpenses"`
	Date           string `json:"date"`
}

// cleanResponse strips markdown fences and surrounding text from a model reply
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseShiftJSON parses the JSON reply of an extraction model
func parseShiftJSON(text string, now time.Time) (*shift.RawShiftData, error) {
	text = cleanResponse(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrExtraction)
	}

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("%w: no JSON object found in response", ErrExtraction)
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("%w: invalid JSON object in response", ErrExtraction)
	}
	text = text[startIdx : endIdx+1]

	var data shiftJSON
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling json: %v", ErrExtraction, err)
	}

	return &shift.RawShiftData{
		TotalAmount:    float64(data.TotalAmount),
		PaidInCareem:   float64(data.PaidInCareem),
		TotalHiredKm:   float64(data.TotalHiredKm),
		VacantKm:       float64(data.VacantKm),
		TotalTrip:      float64(data.TotalTrip),
		BookingTrip:    float64(data.BookingTrip),
		TollwayAmount:  float64(data.TollwayAmount),
		HalaPackAmount: float64(data.HalaPackAmount),
		OtherExpenses:  float64(data.OtherExpenses),
		Date:           normalizeDate(data.Date, now),
	}, nil
}

// normalizeDate returns the date as YYYY-MM-DD, falling back to now
func normalizeDate(value string, now time.Time) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return now.Format(dateLayout)
	}
	if d, err := time.Parse(dateLayout, value); err == nil {
		return d.Format(dateLayout)
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d.Format(dateLayout)
		}
	}
	return now.Format(dateLayout)
}
