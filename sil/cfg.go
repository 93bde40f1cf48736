package sil

import (
	"fmt"
	"sort"
	"sync"
)

// Cfg is the set of procedures produced for a module. It is safe for
// concurrent registration.
type Cfg struct {
	mu    sync.RWMutex
	procs map[string]*ProcDesc
}

// NewCfg returns an empty Cfg.
func NewCfg() *Cfg {
	return &Cfg{procs: map[string]*ProcDesc{}}
}

// Register adds a procedure. Names must be unique.
func (c *Cfg) Register(pd *ProcDesc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.procs[pd.Name()]; exists {
		return fmt.Errorf("procedure %s already registered", pd.Name())
	}
	c.procs[pd.Name()] = pd
	return nil
}

// Proc returns the procedure with the given name.
func (c *Cfg) Proc(name string) (*ProcDesc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pd, ok := c.procs[name]
	return pd, ok
}

// Len returns the number of procedures.
func (c *Cfg) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.procs)
}

// Procs returns the procedures sorted by name.
func (c *Cfg) Procs() []*ProcDesc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	procs := make([]*ProcDesc, 0, len(c.procs))
	for _, pd := range c.procs {
		procs = append(procs, pd)
	}
	sort.Slice(procs, func(i, j int) bool {
		return procs[i].Name() < procs[j].Name()
	})
	return procs
}
