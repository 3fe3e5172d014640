package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Storage defines the interface for receipt photo archiving
type Storage interface {
	// Save saves a file and returns the name to retrieve it with
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by name
	Get(name string) ([]byte, error)

	// Delete removes a file
	Delete(name string) error
}

// LocalStorage implements the Storage interface using a flat local directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// resolve joins name to the base path, refusing anything that leaves it
func (l *LocalStorage) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(l.basePath, name), nil
}

// Save saves a file to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path, err := l.resolve(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(name string) ([]byte, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(name string) error {
	path, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename shortens phone-generated file names and strips special characters
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 || unsafeFilenameChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")

	const maxLen = 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}
