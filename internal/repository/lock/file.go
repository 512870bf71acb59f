package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/oclhelpers-release/internal/logger"
)

const (
	// Filename is the marker created inside the destination directory.
	Filename = ".release-packager.lock"

	fileMode os.FileMode = 0o600
)

var (
	// ErrLocked is returned when another live packager holds the destination.
	ErrLocked = errors.New("destination is locked by another release-packager run")
	// ErrNotHeld is returned by Release when Acquire was not called successfully.
	ErrNotHeld = errors.New("lock is not held")
)

// Marker is the content of the lock file.
type Marker struct {
	PID       int       `yaml:"pid"`
	Hostname  string    `yaml:"hostname"`
	StartedAt time.Time `yaml:"started_at"`
}

// FileLock is a marker-file lock in a directory.
type FileLock struct {
	path     string
	held     bool
	pid      int
	hostname string
	// alive reports whether pid names a running process on this host.
	alive func(pid int) bool
}

// Option configures a FileLock.
type Option func(*FileLock)

// WithProcessCheck replaces the process table lookup.
func WithProcessCheck(alive func(pid int) bool) Option {
	return func(l *FileLock) {
		l.alive = alive
	}
}

// WithOwner overrides the pid and hostname written to the marker.
func WithOwner(pid int, hostname string) Option {
	return func(l *FileLock) {
		l.pid = pid
		l.hostname = hostname
	}
}

// New creates a lock for dir. The directory must exist before Acquire.
func New(dir string, opts ...Option) *FileLock {
	hostname, _ := os.Hostname() //nolint:errcheck // An empty hostname only disables stale detection.

	l := &FileLock{
		path:     filepath.Join(filepath.Clean(dir), Filename),
		pid:      os.Getpid(),
		hostname: hostname,
		alive:    processAlive,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Path returns the marker location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire creates the marker, replacing it once if it is stale.
func (l *FileLock) Acquire(ctx context.Context) error {
	err := l.create()
	if err == nil || !errors.Is(err, fs.ErrExist) {
		return err
	}

	holder, readErr := l.read()
	if readErr == nil && !l.isStale(holder) {
		return fmt.Errorf("%w: pid %d on %s since %s", ErrLocked, holder.PID, holder.Hostname,
			holder.StartedAt.Format(time.RFC3339))
	}

	if readErr != nil {
		logger.WarnKV(ctx, "Unreadable lock marker, replacing it", "path", l.path, "error", readErr)
	} else {
		logger.WarnKV(ctx, "Stale lock marker, replacing it", "path", l.path, "pid", holder.PID)
	}

	if err = os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale lock: %w", err)
	}

	return l.create()
}

// Release removes the marker.
func (l *FileLock) Release() error {
	if !l.held {
		return ErrNotHeld
	}

	l.held = false

	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock: %w", err)
	}

	return nil
}

func (l *FileLock) create() error {
	contents, err := yaml.Marshal(&Marker{
		PID:       l.pid,
		Hostname:  l.hostname,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return fmt.Errorf("marshal lock: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return fmt.Errorf("create lock: %w", err)
	}

	if _, err = f.Write(contents); err != nil {
		_ = f.Close()
		_ = os.Remove(l.path)

		return fmt.Errorf("write lock: %w", err)
	}

	if err = f.Close(); err != nil {
		_ = os.Remove(l.path)

		return fmt.Errorf("close lock: %w", err)
	}

	l.held = true

	return nil
}

func (l *FileLock) read() (*Marker, error) {
	contents, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}

	var m Marker
	if err = yaml.Unmarshal(contents, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// isStale reports whether m was left by a dead process on this host.
// Markers from other hosts are never considered stale.
func (l *FileLock) isStale(m *Marker) bool {
	if m.PID <= 0 {
		return true
	}

	if l.hostname == "" || m.Hostname != l.hostname {
		return false
	}

	return !l.alive(m.PID)
}

func processAlive(pid int) bool {
	p, err := ps.FindProcess(pid)
	if err != nil {
		// Cannot tell, assume the holder is alive.
		return true
	}

	return p != nil
}
