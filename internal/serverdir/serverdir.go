// Package serverdir resolves and guards the server's socket directory
// (spec.md §6.3): "$TMPDIR/tmux-<uid>/<socket-name>", requiring the
// directory and socket to be mode 0700 and owned by the current user.
// Grounded on internal/socketdir's Dir/Path/ProbeSocket shape, widened
// from that package's fixed "~/.h2/sockets" layout to spec.md's
// per-uid TMPDIR scheme and its explicit permission/ownership refusal.
package serverdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Dir returns the default server directory for the current user:
// "$TMPDIR/tmux-<uid>", honoring explicit flag > env var > computed
// default precedence (the teacher's ResolveDir-style precedence).
func Dir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("TMUX_TMPDIR"); env != "" {
		return filepath.Join(env, fmt.Sprintf("tmux-%d", os.Getuid()))
	}
	tmp := os.TempDir()
	return filepath.Join(tmp, fmt.Sprintf("tmux-%d", os.Getuid()))
}

// SocketPath returns the full path to a named socket within dir,
// "default" being the name used when -L is not given (spec.md §6.3).
func SocketPath(dir, name string) string {
	if name == "" {
		name = "default"
	}
	return filepath.Join(dir, name)
}

// EnsureDir creates dir (if absent) mode 0700 and verifies it is owned
// by the current user and has no group or world permission bits at
// all, refusing to proceed otherwise (spec.md §6.3's explicit security requirement).
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create server directory: %w", err)
	}
	return checkPerms(dir)
}

func checkPerms(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Mode().Perm()&0o077 != 0 {
		return fmt.Errorf("%s must not be group- or world-accessible (mode %o)", path, fi.Mode().Perm())
	}
	if !ownedByCurrentUser(fi) {
		return fmt.Errorf("%s is not owned by the current user", path)
	}
	return nil
}

// Lock is an exclusive advisory lock on the server directory held for
// the duration of startup and socket binding, preventing two server
// processes from racing to claim the same socket path (extends the
// teacher's stale-socket probe, which only checked for a dead listener,
// not concurrent startup).
type Lock struct {
	fl *flock.Flock
}

// AcquireStartupLock takes an exclusive, non-blocking lock on a
// ".lock" file inside dir. Returns an error if another server is
// already starting up against the same directory.
func AcquireStartupLock(dir string) (*Lock, error) {
	fl := flock.New(filepath.Join(dir, ".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire startup lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another server is already starting in %s", dir)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks and closes the lock file.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// ProbeSocket checks whether an existing socket at path is a live
// listener (refuse startup) or stale (safe to remove and rebind),
// matching the teacher's socketdir.ProbeSocket contract.
func ProbeSocket(path, label string) error {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat socket %s: %w", path, err)
	}
	if isSocketLive(path) {
		return fmt.Errorf("%s is already running (socket %s in use)", label, path)
	}
	return os.Remove(path)
}
