package gpu

// Context is the render context of one rendering surface. It owns the "last bound program"
// state so programs can skip redundant binds and verify they are current before uniform uploads.
// A Context is not safe for concurrent use; it belongs to the thread that owns the surface.
type Context struct {
	device  Device
	current Handle
}

// NewContext wraps device in a new render context with no program bound.
//
// Parameters:
//   - device: the device that executes the calls
//
// Returns:
//   - *Context: the new context
func NewContext(device Device) *Context {
	return &Context{device: device}
}

// Device returns the device this context drives.
func (c *Context) Device() Device {
	return c.device
}

// UseProgram binds p unless it is already the current program.
//
// Parameters:
//   - p: the program to bind
func (c *Context) UseProgram(p Handle) {
	if c.current == p {
		return
	}
	c.device.UseProgram(p)
	c.current = p
}

// CurrentProgram returns the program bound through this context.
func (c *Context) CurrentProgram() Handle {
	return c.current
}

// IsCurrent reports whether p is the bound program. Zero is never current.
//
// Parameters:
//   - p: the program to check
//
// Returns:
//   - bool: true if p is bound
func (c *Context) IsCurrent(p Handle) bool {
	return p != 0 && c.current == p
}

// Forget clears the bound-program record if it refers to p. Called when p is deleted so a
// recycled name is bound again.
//
// Parameters:
//   - p: the program being deleted
func (c *Context) Forget(p Handle) {
	if c.current == p {
		c.current = 0
	}
}
