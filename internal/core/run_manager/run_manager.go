// Package run_manager owns the node's runtime directory: a temp directory
// named after the node uuid that holds run.lock while the node is up.
package run_manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/akyaiy/rpcnode/internal/core/utils"
)

type RunManagerContract interface {
	Get(index string) (string, error)

	// Set recursively creates a file in runDir
	Set(index string) error

	File(index string) RunFileManagerContract
	Clean() error
	RuntimeDir() string
}

var ErrNotCreated = errors.New("runtime directory is not created")

type RunManager struct {
	mu           sync.Mutex
	runDir       string
	indexedPaths map[string]string
}

// Create makes a temp directory for the node with the given uuid. base is
// the parent directory; empty means os.TempDir().
func Create(base, uuid32, suffix string) (*RunManager, error) {
	path, err := os.MkdirTemp(base, fmt.Sprintf("*-%s-%s", uuid32, suffix))
	if err != nil {
		return nil, err
	}
	return &RunManager{
		runDir:       path,
		indexedPaths: make(map[string]string),
	}, nil
}

// Siblings reports whether another runtime directory for the same uuid exists.
func (m *RunManager) Siblings(uuid32, suffix string) (bool, error) {
	pattern := filepath.Join(filepath.Dir(m.runDir), fmt.Sprintf("*-%s-%s", uuid32, suffix))
	return utils.ExistsMatchingDirs(pattern, m.runDir)
}

func (m *RunManager) RuntimeDir() string {
	return m.runDir
}

func (m *RunManager) Clean() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runDir == "" {
		return ErrNotCreated
	}
	m.indexedPaths = make(map[string]string)
	return utils.CleanTempRuntimes(m.runDir)
}

func (m *RunManager) Get(index string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runDir == "" {
		return "", ErrNotCreated
	}
	if value, ok := m.indexedPaths[index]; ok {
		return value, nil
	}
	if err := m.indexPaths(); err != nil {
		return "", err
	}
	value, ok := m.indexedPaths[index]
	if !ok {
		return "", fmt.Errorf("cannot detect file under index %s", index)
	}
	return value, nil
}

func (m *RunManager) Set(index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runDir == "" {
		return ErrNotCreated
	}
	fullPath := filepath.Join(m.runDir, index)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	m.indexedPaths[index] = fullPath
	return nil
}

func (m *RunManager) SetDir(index string) error {
	if m.runDir == "" {
		return ErrNotCreated
	}
	return os.MkdirAll(filepath.Join(m.runDir, index), 0755)
}

func (m *RunManager) indexPaths() error {
	i, err := utils.IndexPaths(m.runDir)
	if err != nil {
		return err
	}
	m.indexedPaths = i
	return nil
}
