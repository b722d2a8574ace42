package process

import (
	"slices"
	"sync"

	"github.com/GriffinCanCode/taskdock/internal/shared/types"
)

// Registry owns the pid to app mapping for every process the dashboard knows
// about, whether spawned here or discovered and memoised.
type Registry struct {
	mu      sync.RWMutex
	records map[int]types.ProcessRecord // Protected by mu
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{records: make(map[int]types.ProcessRecord)}
}

// Insert adds or replaces the record for rec.PID
func (r *Registry) Insert(rec types.ProcessRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.PID] = clone(rec)
}

// Remove deletes a record and reports whether one existed
func (r *Registry) Remove(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[pid]
	delete(r.records, pid)
	return ok
}

// RemoveIf deletes the record only when match accepts it
func (r *Registry) RemoveIf(pid int, match func(types.ProcessRecord) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[pid]
	if !ok || !match(rec) {
		return false
	}
	delete(r.records, pid)
	return true
}

// Lookup returns a copy of the record for pid
func (r *Registry) Lookup(pid int) (types.ProcessRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[pid]
	if !ok {
		return types.ProcessRecord{}, false
	}
	return clone(rec), true
}

// SetPort records the port for an existing entry
func (r *Registry) SetPort(pid, port int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[pid]
	if !ok {
		return false
	}
	rec.Port = types.IntPtr(port)
	r.records[pid] = rec
	return true
}

// List returns every record ordered by pid
func (r *Registry) List() []types.ProcessRecord {
	r.mu.RLock()
	out := make([]types.ProcessRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, clone(rec))
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b types.ProcessRecord) int { return a.PID - b.PID })
	return out
}

// Len returns the number of records
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func clone(rec types.ProcessRecord) types.ProcessRecord {
	if rec.Port != nil {
		rec.Port = types.IntPtr(*rec.Port)
	}
	return rec
}
