// util/sync.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmp/dwr/log"
)

///////////////////////////////////////////////////////////////////////////
// AtomicBool

// AtomicBool is a simple wrapper around atomic.Bool that adds support for
// JSON marshaling/unmarshaling.
type AtomicBool struct {
	atomic.Bool
}

func (a AtomicBool) MarshalJSON() ([]byte, error) {
	b := a.Load()
	return json.Marshal(b)
}

func (a *AtomicBool) UnmarshalJSON(data []byte) error {
	var b bool
	err := json.Unmarshal(data, &b)
	if err == nil {
		a.Store(b)
	}
	return err
}

///////////////////////////////////////////////////////////////////////////
// LoggingRWMutex

// LoggingRWMutex wraps sync.RWMutex with the reader-writer discipline
// recommended at the boundary between search reads (RLock) and add/remove/
// update writes (Lock) on a long-lived airway graph or hazard index. It is
// not required by the core itself; it logs slow acquisitions so a stuck
// writer behind a long-running search is visible in the log file.
type LoggingRWMutex struct {
	mu       sync.RWMutex
	acq      time.Time
	acqStack log.CallStack
}

var heldWritersMutex sync.Mutex
var heldWriters = make(map[*LoggingRWMutex]struct{})

func DumpHeldWriters(lg *log.Logger) string {
	heldWritersMutex.Lock()
	defer heldWritersMutex.Unlock()

	s := fmt.Sprintf("%d write locks held\n\n", len(heldWriters))
	for m := range heldWriters {
		s += fmt.Sprintf("Mutex %p: acquired %s ago\n", m, time.Since(m.acq))
		s += strings.Join(m.acqStack.Strings(), " | ") + "\n"
	}
	return s
}

func (l *LoggingRWMutex) RLock(lg *log.Logger) {
	lg.Debug("acquiring read lock", slog.Any("mutex", l))
	l.mu.RLock()
	lg.Debug("acquired read lock", slog.Any("mutex", l))
}

func (l *LoggingRWMutex) RUnlock(lg *log.Logger) {
	l.mu.RUnlock()
	lg.Debug("released read lock", slog.Any("mutex", l))
}

func (l *LoggingRWMutex) Lock(lg *log.Logger) {
	start := time.Now()
	lg.Debug("attempting to acquire write lock", slog.Any("mutex", l))

	if !l.mu.TryLock() {
		locked := make(chan struct{}, 1)
		go func() {
			l.mu.Lock()
			locked <- struct{}{}
		}()

	loop:
		for {
			select {
			case <-locked:
				break loop
			case <-time.After(10 * time.Second):
				if !debuggerRunning() {
					var m runtime.MemStats
					runtime.ReadMemStats(&m)
					lg.Errorf("unable to acquire write lock after 10 seconds: alloc %dMB sys %dMB goroutines %d",
						m.Alloc/(1024*1024), m.Sys/(1024*1024), runtime.NumGoroutine())
					lg.Errorf("held writers: %s", DumpHeldWriters(lg))
				}
			}
		}
	}

	heldWritersMutex.Lock()
	heldWriters[l] = struct{}{}
	heldWritersMutex.Unlock()

	l.acq = time.Now()
	l.acqStack = log.Callstack(nil)
	w := l.acq.Sub(start)
	lg.Debug("acquired write lock", slog.Any("mutex", l), slog.Duration("wait", w))
	if w > time.Second {
		lg.Warn("long wait to acquire write lock", slog.Any("mutex", l), slog.Duration("wait", w))
	}
}

func (l *LoggingRWMutex) Unlock(lg *log.Logger) {
	heldWritersMutex.Lock()
	defer heldWritersMutex.Unlock()

	delete(heldWriters, l)

	if d := time.Since(l.acq); d > time.Second {
		lg.Warn("write lock held for over 1 second", slog.Any("mutex", l), slog.Duration("held", d))
	}

	l.acq = time.Time{}
	l.acqStack = nil
	l.mu.Unlock()

	lg.Debug("released write lock", slog.Any("mutex", l))
}

func (l *LoggingRWMutex) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Time("acq", l.acq),
		slog.Duration("held", time.Since(l.acq)))
}

func debuggerRunning() bool {
	dlv, ok := os.LookupEnv("_")
	return ok && strings.HasSuffix(dlv, "/dlv")
}
