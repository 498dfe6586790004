// Package pathlock serializes operations that write to the same path, both
// inside one process and across processes.
package pathlock

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/3leaps/mingwup/internal/model"
)

// Guard is an in-process single-flight set keyed by cleaned path.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{held: make(map[string]struct{})}
}

// TryAcquire claims path or returns model.ErrBusy if it is already claimed.
// The returned func releases the claim and is safe to call more than once.
func (g *Guard) TryAcquire(path string) (func(), error) {
	key := keyFor(path)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held == nil {
		g.held = make(map[string]struct{})
	}
	if _, ok := g.held[key]; ok {
		return nil, model.ErrBusy
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

func keyFor(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

// PollInterval is how often Take retries a held lock file.
var PollInterval = time.Second

// Take creates path exclusively, retrying until it succeeds or ctx is done.
// The file holds the owner's PID; a lock left by a process that no longer
// exists is removed and taken over. waiting is called on every failed
// attempt.
func Take(ctx context.Context, path string, waiting func()) (func(), error) {
	tk := time.NewTicker(PollInterval)
	defer tk.Stop()

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", os.Getpid())
			cerr := f.Close()
			if werr == nil {
				werr = cerr
			}
			if werr != nil {
				os.Remove(path)
				return nil, model.E(model.KindFilesystem, "write lock file", werr)
			}
			break
		}
		if !os.IsExist(err) {
			return nil, model.E(model.KindFilesystem, "create lock file", err)
		}

		if Stale(path) {
			if err := os.Remove(path); err == nil || os.IsNotExist(err) {
				continue
			}
		}

		if waiting != nil {
			waiting()
		}

		select {
		case <-tk.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return func() {
		os.Remove(path)
	}, nil
}

// Stale reports whether the lock file at path names a process that is no
// longer running. Unreadable or foreign content counts as live.
func Stale(path string) bool {
	data, err := os.ReadFile(path) // #nosec G304 -- lock path derived from config
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 || pid > math.MaxInt32 || pid == os.Getpid() {
		return false
	}
	alive, err := process.PidExists(int32(pid))
	return err == nil && !alive
}
