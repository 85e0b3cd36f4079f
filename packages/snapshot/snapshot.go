// Package snapshot stores the golden outcome of snapshot checks.
//
// A snapshot check records the rendered failure message it produced (empty
// when every expectation passed). Later runs must reproduce the same message,
// which pins the exact wording of expected failures.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// SnapshotDir is the directory name for storing snapshots
	SnapshotDir = "__snapshots__"
	// SnapshotExt is the file extension for snapshot files
	SnapshotExt = ".snap.json"
)

// Manager handles snapshot storage and comparison. It is safe for
// concurrent use by checks of the same suite.
type Manager struct {
	updateMode bool

	mu    sync.Mutex
	files map[string]map[string]string // snapshot file -> {check -> outcome}
}

// NewManager creates a new snapshot manager. In update mode missing or
// mismatching snapshots are rewritten instead of failing.
func NewManager(updateMode bool) *Manager {
	return &Manager{
		updateMode: updateMode,
		files:      make(map[string]map[string]string),
	}
}

// Reset drops the cached snapshot files so the next comparison reads them
// from disk again.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.files)
}

// Result represents the result of a snapshot comparison.
type Result struct {
	Passed     bool
	Message    string
	Expected   string
	Actual     string
	IsNew      bool
	WasUpdated bool
}

// Compare compares the outcome of checkName in suiteFile against the stored
// snapshot.
func (m *Manager) Compare(suiteFile, checkName, actual string) *Result {
	result := &Result{Actual: actual}
	path := FilePath(suiteFile)

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots, err := m.load(path)
	if err != nil {
		result.Message = fmt.Sprintf("failed to load snapshots: %v", err)
		return result
	}

	expected, exists := snapshots[checkName]
	if !exists {
		if !m.updateMode {
			result.Message = "snapshot does not exist (run with --update-snapshots to create)"
			return result
		}
		snapshots[checkName] = actual
		if err := m.save(path, snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to save snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.IsNew = true
		result.Expected = actual
		result.Message = "new snapshot created"
		return result
	}

	result.Expected = expected
	if expected == actual {
		result.Passed = true
		return result
	}

	if m.updateMode {
		snapshots[checkName] = actual
		if err := m.save(path, snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to update snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.WasUpdated = true
		result.Message = "snapshot updated"
		return result
	}

	result.Message = fmt.Sprintf("snapshot mismatch: expected %q, got %q", expected, actual)
	return result
}

// FilePath returns the path of the snapshot file belonging to a suite file.
func FilePath(suiteFile string) string {
	dir := filepath.Dir(suiteFile)
	name := filepath.Base(suiteFile)
	for _, ext := range []string{".check.yaml", ".check.yml", ".checkspec"} {
		if trimmed, ok := strings.CutSuffix(name, ext); ok {
			name = trimmed
			break
		}
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return filepath.Join(dir, SnapshotDir, name+SnapshotExt)
}

// load reads a snapshot file, caching it for the lifetime of the manager.
func (m *Manager) load(path string) (map[string]string, error) {
	if cached, ok := m.files[path]; ok {
		return cached, nil
	}

	snapshots := make(map[string]string)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.files[path] = snapshots
			return snapshots, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.files[path] = snapshots
	return snapshots, nil
}

func (m *Manager) save(path string, snapshots map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	// map keys are marshalled in sorted order, keeping diffs stable
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return err
	}

	m.files[path] = snapshots
	return os.WriteFile(path, append(data, '\n'), 0644)
}
