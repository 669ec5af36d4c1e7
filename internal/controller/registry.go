package controller

import (
	cmap "github.com/orcaman/concurrent-map/v2"
	"sort"
)

// Registry holds the control loops of this process, keyed by loop id
type Registry struct {
	loops cmap.ConcurrentMap[string, ControlLoop]
}

func NewRegistry() *Registry {
	return &Registry{
		loops: cmap.New[ControlLoop](),
	}
}

func (r *Registry) Register(loop ControlLoop) {
	r.loops.Set(loop.GetId(), loop)
}

func (r *Registry) Get(id string) (ControlLoop, bool) {
	return r.loops.Get(id)
}

// Snapshots returns the snapshot of every registered loop, keyed by loop id
func (r *Registry) Snapshots() map[string]Snapshot {
	result := map[string]Snapshot{}
	for item := range r.loops.IterBuffered() {
		result[item.Key] = item.Val.Snapshot()
	}
	return result
}

// Ids returns the sorted ids of all registered loops
func (r *Registry) Ids() []string {
	ids := r.loops.Keys()
	sort.Strings(ids)
	return ids
}
