package search

// QueryShapeCache holds the where-shape token of the last executed query. It
// has no lock of its own; the owning session's lock guards it.
type QueryShapeCache struct {
	token uint32
}

// Token returns the cached token, 0 meaning no reuse.
func (c *QueryShapeCache) Token() uint32 {
	return c.token
}

func (c *QueryShapeCache) Store(token uint32) {
	c.token = token
}

func (c *QueryShapeCache) Reset() {
	c.token = 0
}
