package session

import (
	"sync"

	"github.com/markerscan/markerd/pkg/core"
)

// Context holds the current scanning session state
type Context struct {
	mu      sync.RWMutex
	session core.Session
}

// NewContext creates a new Context wrapping the given session
func NewContext(s core.Session) *Context {
	return &Context{session: s}
}

// Get returns a snapshot of the current session
func (c *Context) Get() core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Set replaces the current session
func (c *Context) Set(s core.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// SetMarkerCount updates the marker count after a dictionary reload
func (c *Context) SetMarkerCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.MarkerCount = n
}
