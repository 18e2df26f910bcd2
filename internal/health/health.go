package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Check reports whether one dependency is ready.
type Check func() error

// Readiness aggregates named checks.
type Readiness struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewReadiness creates an empty Readiness; with no checks it is always ready.
func NewReadiness() *Readiness {
	return &Readiness{checks: make(map[string]Check)}
}

// Add registers or replaces a named check.
func (rd *Readiness) Add(name string, c Check) {
	rd.mu.Lock()
	rd.checks[name] = c
	rd.mu.Unlock()
}

// Failing runs every check and returns the failures keyed by name.
func (rd *Readiness) Failing() map[string]string {
	rd.mu.RLock()
	defer rd.mu.RUnlock()

	failing := make(map[string]string)
	for name, c := range rd.checks {
		if err := c(); err != nil {
			failing[name] = err.Error()
		}
	}
	return failing
}

// Readyz returns 200 "ready\n" when every check passes, and 503 with a JSON
// list of failing checks otherwise.
func (rd *Readiness) Readyz(w http.ResponseWriter, r *http.Request) {
	failing := rd.Failing()
	if len(failing) == 0 {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
		return
	}

	names := make([]string, 0, len(failing))
	for name := range failing {
		names = append(names, name)
	}
	sort.Strings(names)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "not ready",
		"failing": names,
		"reasons": failing,
	})
}
