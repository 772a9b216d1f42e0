package args

// Cursor walks a token list for a single parse. It only moves forward,
// except for Back which undoes exactly the last Next.
type Cursor struct {
	tokens []string
	pos    int
}

// NewCursor returns a cursor positioned before the first token
func NewCursor(tokens []string) *Cursor {
	return &Cursor{tokens: tokens}
}

// HasNext reports whether unread tokens remain
func (c *Cursor) HasNext() bool {
	return c.pos < len(c.tokens)
}

// Next returns the next token and advances. The second result is false
// when the stream is exhausted, in which case the cursor does not move.
func (c *Cursor) Next() (string, bool) {
	if !c.HasNext() {
		return "", false
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok, true
}

// Back rewinds the last Next
func (c *Cursor) Back() {
	if c.pos > 0 {
		c.pos--
	}
}

// Pos is the index of the next unread token
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the unread tokens
func (c *Cursor) Remaining() []string {
	return c.tokens[c.pos:]
}
