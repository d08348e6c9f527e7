// Package artifact persists raw WebAPI responses as a directory tree of JSON
// files. File presence is the fetch pipeline's resumption checkpoint: a stage
// skips any key whose artifact already exists, so re-running the pipeline is
// idempotent at artifact granularity.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stage subdirectories under the store root
const (
	RoutesFile    = "routes.json"
	RouteIDsDir   = "routeids"
	RouteLinesDir = "routelines"
	TimetablesDir = "timetables"
	StopsDir      = "stops"
)

// Store is a raw artifact store rooted at a single directory
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory
func (s *Store) Root() string {
	return s.root
}

// Path joins the given key parts under the store root
func (s *Store) Path(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...)
}

// EnsureDir creates the named subdirectory if it does not exist
func (s *Store) EnsureDir(parts ...string) error {
	if err := os.MkdirAll(s.Path(parts...), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return nil
}

// Exists reports whether a non-empty artifact is present for the key.
// Zero-length files are treated as absent so a stage refetches them.
func (s *Store) Exists(parts ...string) bool {
	info, err := os.Stat(s.Path(parts...))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Write stores an artifact atomically: the data is written to a temporary
// file in the destination directory, then renamed into place. A crash
// mid-write can never leave a truncated artifact that a later run would
// mistake for a complete one.
func (s *Store) Write(data []byte, parts ...string) error {
	dest := s.Path(parts...)
	dir := filepath.Dir(dest)

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact %s: %w", dest, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize artifact %s: %w", dest, err)
	}
	return nil
}

// Read returns the contents of an artifact
func (s *Store) Read(parts ...string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(parts...))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// List returns the sorted JSON artifact file names in a stage directory.
// A missing directory is an empty listing, not an error.
func (s *Store) List(parts ...string) ([]string, error) {
	entries, err := os.ReadDir(s.Path(parts...))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
