package run_manager

import (
	"context"
	"errors"
	"os"
	"time"
)

type RunFileManagerContract interface {
	Open() (*os.File, error)
	Close() error
	Watch(parentCtx context.Context, callback func()) (context.CancelFunc, error)
}

type RunFileManager struct {
	err         error
	indexedPath string
	file        *os.File

	// WatchInterval is how often Watch polls the file.
	WatchInterval time.Duration
}

func (m *RunManager) File(index string) RunFileManagerContract {
	path, err := m.Get(index)
	if err != nil {
		return &RunFileManager{err: err}
	}
	return &RunFileManager{indexedPath: path, WatchInterval: time.Second}
}

func (r *RunFileManager) Open() (*os.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	file, err := os.OpenFile(r.indexedPath, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	r.file = file
	return file, nil
}

func (r *RunFileManager) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Watch calls callback once when the file is removed, replaced or modified.
func (r *RunFileManager) Watch(parentCtx context.Context, callback func()) (context.CancelFunc, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.file == nil {
		return nil, errors.New("file is not opened")
	}

	orig, err := r.file.Stat()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parentCtx)
	go func() {
		ticker := time.NewTicker(r.WatchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(r.indexedPath)
				if err != nil {
					if os.IsNotExist(err) {
						callback()
						return
					}
					continue
				}
				if !os.SameFile(orig, info) || !info.ModTime().Equal(orig.ModTime()) {
					callback()
					return
				}
			}
		}
	}()

	return cancel, nil
}
