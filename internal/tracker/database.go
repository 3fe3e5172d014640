package tracker

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/taxishift/internal/shift"
)

const (
	usersBucketName  = "users"
	shiftsBucketName = "shifts"
)

// DB defines the interface for user and shift history persistence
type DB interface {
	// FindUser retrieves a user by driver ID, ErrUserNotFound if absent
	FindUser(id string) (*UserRecord, error)

	// CreateUser inserts a new user, ErrUserExists if the ID is taken
	CreateUser(record *UserRecord) error

	// LoadShiftHistory returns a user's shifts in append order
	LoadShiftHistory(userID string) ([]*shift.CalculatedShift, error)

	// SaveShiftHistory replaces a user's whole shift list
	SaveShiftHistory(userID string, shifts []*shift.CalculatedShift) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	return openBoltDB(path, false)
}

// OpenBoltDBReadOnly opens an existing database for reporting
func OpenBoltDBReadOnly(path string) (*BoltDB, error) {
	return openBoltDB(path, true)
}

func openBoltDB(path string, readOnly bool) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}
	if readOnly {
		return &BoltDB{db: db}, nil
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{usersBucketName, shiftsBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// FindUser retrieves a user by driver ID
func (b *BoltDB) FindUser(id string) (*UserRecord, error) {
	var record *UserRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(usersBucketName))
		if bucket == nil {
			return fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreateUser inserts a new user
func (b *BoltDB) CreateUser(record *UserRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(usersBucketName))
		if bucket.Get([]byte(record.ID)) != nil {
			return fmt.Errorf("%w: %s", ErrUserExists, record.ID)
		}
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling user: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// LoadShiftHistory returns a user's shifts, empty when none were saved
func (b *BoltDB) LoadShiftHistory(userID string) ([]*shift.CalculatedShift, error) {
	shifts := make([]*shift.CalculatedShift, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(shiftsBucketName))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(userID))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &shifts); err != nil {
			return fmt.Errorf("unmarshaling shift history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

// SaveShiftHistory replaces a user's shift list
func (b *BoltDB) SaveShiftHistory(userID string, shifts []*shift.CalculatedShift) error {
	if shifts == nil {
		shifts = []*shift.CalculatedShift{}
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(shiftsBucketName))
		data, err := json.Marshal(shifts)
		if err != nil {
			return fmt.Errorf("marshaling shift history: %w", err)
		}
		return bucket.Put([]byte(userID), data)
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
