package scanning

import (
	"context"
	"errors"
	"fmt"

	"github.com/zombor/taxishift/internal/shift"
)

var (
	// ErrConfiguration means the scanner has no usable credential
	ErrConfiguration = errors.New("receipt scanning is not configured")
	// ErrAuthorization means the upstream service rejected the credential
	ErrAuthorization = errors.New("receipt scanning credential was rejected")
	// ErrExtraction means the image could not be turned into shift data
	ErrExtraction = errors.New("could not read shift data from image")
)

// IsReconfigure reports whether err can only be fixed by changing the
// scanner configuration, as opposed to retaking the photo.
func IsReconfigure(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrAuthorization)
}

// Scanner defines the interface for reading shift summary receipts
type Scanner interface {
	// ScanShift analyzes a summary photo and extracts the raw shift fields.
	// Fields missing from the photo are returned as 0 and a missing date as today.
	ScanShift(ctx context.Context, imageData []byte, contentType string) (*shift.RawShiftData, error)
	// Close closes the scanner and releases resources
	Close() error
}

// Unconfigured is the Scanner used when no provider could be set up.
// Every scan fails with ErrConfiguration.
type Unconfigured struct {
	Reason string
}

func (u *Unconfigured) ScanShift(ctx context.Context, imageData []byte, contentType string) (*shift.RawShiftData, error) {
	if u.Reason == "" {
		return nil, ErrConfiguration
	}
	return nil, fmt.Errorf("%w: %s", ErrConfiguration, u.Reason)
}

func (u *Unconfigured) Close() error {
	return nil
}
