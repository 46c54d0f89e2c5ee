package run_manager

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// LockInfo is the content of run.lock.
type LockInfo struct {
	PID     int
	Version string
	UUID    string
	Started time.Time
}

// WriteLock stores info in the [runtime] section of the file at index.
func (m *RunManager) WriteLock(index string, info LockInfo) error {
	if err := m.Set(index); err != nil {
		return err
	}
	path, err := m.Get(index)
	if err != nil {
		return err
	}

	lockFile := ini.Empty()
	secRun, err := lockFile.NewSection("runtime")
	if err != nil {
		return err
	}
	secRun.Key("pid").SetValue(strconv.Itoa(info.PID))
	secRun.Key("version").SetValue(info.Version)
	secRun.Key("uuid").SetValue(info.UUID)
	secRun.Key("timestamp").SetValue(info.Started.Format("2006-01-02/15:04:05 MST"))
	secRun.Key("timestamp-unix").SetValue(fmt.Sprintf("%d", info.Started.Unix()))
	return lockFile.SaveTo(path)
}

// ReadLock loads a run.lock written by WriteLock.
func ReadLock(path string) (LockInfo, error) {
	f, err := ini.Load(path)
	if err != nil {
		return LockInfo{}, err
	}
	sec, err := f.GetSection("runtime")
	if err != nil {
		return LockInfo{}, err
	}
	pid, err := sec.Key("pid").Int()
	if err != nil {
		return LockInfo{}, fmt.Errorf("bad pid in %s: %w", path, err)
	}
	unix, err := sec.Key("timestamp-unix").Int64()
	if err != nil {
		return LockInfo{}, fmt.Errorf("bad timestamp in %s: %w", path, err)
	}
	return LockInfo{
		PID:     pid,
		Version: sec.Key("version").String(),
		UUID:    sec.Key("uuid").String(),
		Started: time.Unix(unix, 0),
	}, nil
}
