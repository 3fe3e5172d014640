package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zombor/taxishift/internal/scanning"
	"github.com/zombor/taxishift/internal/shift"
)

// DefaultMaxImageSize is the largest receipt photo accepted for extraction
const DefaultMaxImageSize int64 = 8 << 20

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles driver accounts and shift operations
type Service struct {
	db           DB
	scanner      scanning.Scanner
	storage      Storage
	sessions     *SessionStore
	calculator   *shift.Calculator
	timeSource   TimeSource
	extraction   *extractionGuard
	historyLocks *keyedMutex
	maxImageSize int64
	bcryptCost   int
}

// NewService creates a new Service with the default calculator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage, sessions *SessionStore) *Service {
	return NewServiceWithDeps(db, scanner, storage, sessions, shift.NewCalculator(), &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, sessions *SessionStore, calculator *shift.Calculator, timeSrc TimeSource) *Service {
	s := &Service{
		db:           db,
		scanner:      scanner,
		storage:      storage,
		sessions:     sessions,
		calculator:   calculator,
		timeSource:   timeSrc,
		historyLocks: newKeyedMutex(),
		maxImageSize: DefaultMaxImageSize,
		bcryptCost:   bcrypt.DefaultCost,
	}
	s.extraction = newExtractionGuard(timeSrc.Now, func(err error) (string, string) {
		_, body := classifyError(err, s.maxImageSize)
		return body.Error, body.Kind
	})
	return s
}

// SetMaxImageSize changes the upload cap
func (s *Service) SetMaxImageSize(n int64) {
	if n > 0 {
		s.maxImageSize = n
	}
}

// MaxImageSize returns the upload cap in bytes
func (s *Service) MaxImageSize() int64 {
	return s.maxImageSize
}

// Register creates a driver account and logs it in
func (s *Service) Register(req RegisterRequest) (*Session, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.CarSideNumber = strings.TrimSpace(req.CarSideNumber)
	req.MobileNumber = strings.TrimSpace(req.MobileNumber)

	if req.ID == "" || req.Name == "" || req.Password == "" {
		return nil, &ValidationError{Message: "Driver ID, name and password are required."}
	}
	if req.Password != req.ConfirmPassword {
		return nil, &ValidationError{Message: "Passwords do not match."}
	}

	if _, err := s.db.FindUser(req.ID); err == nil {
		return nil, &ValidationError{Message: "Driver ID already registered.", Err: ErrUserExists}
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, storageError("looking up user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &ValidationError{Message: "Password is too long.", Err: err}
		}
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	record := &UserRecord{
		User: User{
			ID:            req.ID,
			Name:          req.Name,
			CarSideNumber: req.CarSideNumber,
			MobileNumber:  req.MobileNumber,
			IsSubscribed:  true,
		},
		PasswordHash: string(hash),
		CreatedAt:    s.timeSource.Now(),
	}
	if err := s.db.CreateUser(record); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, &ValidationError{Message: "Driver ID already registered.", Err: err}
		}
		return nil, storageError("creating user", err)
	}

	slog.Info("Driver registered", "driver_id", record.ID)
	return s.sessions.Create(record.User), nil
}

// Login checks the credentials and starts a session
func (s *Service) Login(id, password string) (*Session, error) {
	record, err := s.db.FindUser(strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageError("looking up user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.sessions.Create(record.User), nil
}

// Logout ends the session for token
func (s *Service) Logout(token string) {
	s.sessions.Delete(token)
}

// Session returns the live session for token
func (s *Service) Session(token string) (*Session, error) {
	sess, ok := s.sessions.Get(token)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// SubmitReceipt extracts a shift from a summary photo, calculates it and
// appends it to the driver's history. Only one photo per driver is processed at a time.
func (s *Service) SubmitReceipt(ctx context.Context, sess *Session, filename string, data []byte, contentType string) (result *shift.CalculatedShift, err error) {
	if len(data) == 0 {
		return nil, &ValidationError{Message: "No file was selected. Please choose a photo to upload."}
	}
	if int64(len(data)) > s.maxImageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(data))
	}

	userID := sess.User.ID
	if err := s.extraction.begin(userID); err != nil {
		return nil, err
	}
	defer func() {
		s.extraction.finish(userID, err)
	}()

	raw, err := s.scanner.ScanShift(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"driver_id", userID,
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"reconfigure", scanning.IsReconfigure(err),
			"error", err,
		)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	calculated, err := s.calculate(*raw)
	if err != nil {
		return nil, err
	}

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", calculated.ID, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, storageError("archiving receipt", err)
	}
	calculated.ReceiptFile = savedPath

	if err := s.appendShift(userID, calculated); err != nil {
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to clean up receipt file", "filename", savedPath, "error", delErr)
		}
		return nil, err
	}

	return calculated, nil
}

// AddShift records a shift typed in by the driver
func (s *Service) AddShift(sess *Session, raw shift.RawShiftData) (*shift.CalculatedShift, error) {
	if strings.TrimSpace(raw.Date) == "" {
		raw.Date = s.timeSource.Now().Format("2006-01-02")
	}
	calculated, err := s.calculate(raw)
	if err != nil {
		return nil, err
	}
	if err := s.appendShift(sess.User.ID, calculated); err != nil {
		return nil, err
	}
	return calculated, nil
}

func (s *Service) calculate(raw shift.RawShiftData) (*shift.CalculatedShift, error) {
	calculated, err := s.calculator.Calculate(raw)
	if err != nil {
		return nil, &ValidationError{Message: err.Error(), Err: err}
	}
	if raw.BookingTrip > raw.TotalTrip {
		slog.Warn("Booking trips exceed total trips, normal trip expense is negative",
			"shift_id", calculated.ID,
			"total_trip", raw.TotalTrip,
			"booking_trip", raw.BookingTrip,
		)
	}
	return calculated, nil
}

// appendShift adds a shift to the stored history, one writer per user at a time
func (s *Service) appendShift(userID string, calculated *shift.CalculatedShift) error {
	unlock := s.historyLocks.lock(userID)
	defer unlock()

	shifts, err := s.db.LoadShiftHistory(userID)
	if err != nil {
		return storageError("loading shift history", err)
	}
	history := shift.NewHistory(shifts)
	history.Append(calculated)
	if err := s.db.SaveShiftHistory(userID, history.Shifts()); err != nil {
		return storageError("saving shift history", err)
	}
	return nil
}

// History returns the driver's shift history
func (s *Service) History(sess *Session) (*shift.History, error) {
	shifts, err := s.db.LoadShiftHistory(sess.User.ID)
	if err != nil {
		return nil, storageError("loading shift history", err)
	}
	return shift.NewHistory(shifts), nil
}

// Dashboard returns the driver's totals and the chart of recent shifts
func (s *Service) Dashboard(sess *Session) (shift.Summary, error) {
	history, err := s.History(sess)
	if err != nil {
		return shift.Summary{}, err
	}
	return history.Summarize(shift.RecentWindow), nil
}

// GetShift retrieves one of the driver's shifts by ID
func (s *Service) GetShift(sess *Session, id string) (*shift.CalculatedShift, error) {
	history, err := s.History(sess)
	if err != nil {
		return nil, err
	}
	calculated, ok := history.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShiftNotFound, id)
	}
	return calculated, nil
}

// GetShiftReceipt returns the archived photo of a shift and its content type
func (s *Service) GetShiftReceipt(sess *Session, id string) ([]byte, string, error) {
	calculated, err := s.GetShift(sess, id)
	if err != nil {
		return nil, "", err
	}
	if calculated.ReceiptFile == "" {
		return nil, "", fmt.Errorf("%w: no receipt archived for shift %s", ErrShiftNotFound, id)
	}

	data, err := s.storage.Get(calculated.ReceiptFile)
	if err != nil {
		return nil, "", storageError("reading receipt file", err)
	}
	return data, http.DetectContentType(data), nil
}

// DeleteShift removes a shift and its archived photo
func (s *Service) DeleteShift(sess *Session, id string) error {
	userID := sess.User.ID
	unlock := s.historyLocks.lock(userID)
	defer unlock()

	shifts, err := s.db.LoadShiftHistory(userID)
	if err != nil {
		return storageError("loading shift history", err)
	}
	history := shift.NewHistory(shifts)
	calculated, ok := history.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrShiftNotFound, id)
	}
	history.Remove(id)
	if err := s.db.SaveShiftHistory(userID, history.Shifts()); err != nil {
		return storageError("saving shift history", err)
	}

	if calculated.ReceiptFile != "" {
		if err := s.storage.Delete(calculated.ReceiptFile); err != nil {
			// Log error but the shift is already gone
			slog.Warn("Failed to delete receipt file", "filename", calculated.ReceiptFile, "error", err)
		}
	}
	return nil
}

// ExtractionStatus reports the driver's current or last extraction
func (s *Service) ExtractionStatus(sess *Session) ExtractionStatus {
	return s.extraction.status(sess.User.ID)
}

// ExportHistory writes the driver's history as an XLSX workbook, newest first
func (s *Service) ExportHistory(sess *Session, w io.Writer) error {
	history, err := s.History(sess)
	if err != nil {
		return err
	}
	return WriteHistoryXLSX(w, sess.User, history.Newest())
}
