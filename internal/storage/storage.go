package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// Storage handles the output directory the calendar is published to
type Storage struct {
	dir string
}

// New creates a new Storage instance, creating dir and any missing parents.
// A leading ~ is expanded to the user's home directory.
func New(dir string) (*Storage, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expanding output directory: %w", err)
	}

	if err := os.MkdirAll(expanded, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Storage{
		dir: expanded,
	}, nil
}

// Dir returns the resolved output directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Path returns the location of name inside the output directory.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteCalendar replaces name with data and returns the file's path.
// The data is written to a temporary file in the same directory and renamed
// into place, so readers never see a partial calendar.
func (s *Storage) WriteCalendar(name string, data []byte) (string, error) {
	path := s.Path(name)

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing calendar: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("setting calendar permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing calendar: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("replacing calendar: %w", err)
	}
	return path, nil
}

// ReadCalendar returns the current contents of name.
func (s *Storage) ReadCalendar(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	return data, nil
}
