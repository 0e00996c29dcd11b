package page

import (
	"bytes"
	"io"
)

// Segment is one buffered region of rendered output.
type Segment struct {
	buf bytes.Buffer
}

// Write implements io.Writer.
func (s *Segment) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// WriteString implements io.StringWriter.
func (s *Segment) WriteString(v string) (int, error) {
	return s.buf.WriteString(v)
}

// String returns the buffered content.
func (s *Segment) String() string {
	return s.buf.String()
}

// OutputStack buffers nested regions of output. Writes land in the most
// recently pushed segment, or in the base writer when no segment is open.
// Segments close last-in, first-out.
type OutputStack struct {
	base     io.Writer
	segments []*Segment
}

// NewOutputStack creates a stack writing unbuffered output to base. A nil base
// discards unbuffered output.
func NewOutputStack(base io.Writer) *OutputStack {
	if base == nil {
		base = io.Discard
	}
	return &OutputStack{base: base}
}

// Push opens a new segment on top of the stack.
func (s *OutputStack) Push() *Segment {
	seg := &Segment{}
	s.segments = append(s.segments, seg)
	return seg
}

// Pop removes the top segment and returns its content. ok is false when the
// stack is empty.
func (s *OutputStack) Pop() (content string, ok bool) {
	if len(s.segments) == 0 {
		return "", false
	}
	last := len(s.segments) - 1
	seg := s.segments[last]
	s.segments[last] = nil
	s.segments = s.segments[:last]
	return seg.String(), true
}

// Top returns the segment currently receiving writes, or nil.
func (s *OutputStack) Top() *Segment {
	if len(s.segments) == 0 {
		return nil
	}
	return s.segments[len(s.segments)-1]
}

// Len returns the number of open segments.
func (s *OutputStack) Len() int {
	return len(s.segments)
}

// Write implements io.Writer.
func (s *OutputStack) Write(p []byte) (int, error) {
	if top := s.Top(); top != nil {
		return top.Write(p)
	}
	return s.base.Write(p)
}

// WriteString implements io.StringWriter.
func (s *OutputStack) WriteString(v string) (int, error) {
	if top := s.Top(); top != nil {
		return top.WriteString(v)
	}
	return io.WriteString(s.base, v)
}
