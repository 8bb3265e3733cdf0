package irc

import "bytes"

// lineBuffer reassembles protocol lines from arbitrarily fragmented reads.
//
// Splitting happens only when a chunk itself ends in '\n'. A chunk that stops
// mid-line keeps the whole buffer pending, including complete lines that
// arrived earlier, so lines are extracted once per terminator-ending read.
type lineBuffer struct {
	buf []byte
	// tail is the offset just past the last '\n' in buf.
	tail int
	max  int
}

func newLineBuffer(size, max int) *lineBuffer {
	return &lineBuffer{
		buf: make([]byte, 0, size),
		max: max,
	}
}

// feed appends chunk and returns the complete lines, if any. Lines are split on
// any run of CR and LF, so CRLF and bare LF are both accepted and blank lines
// are dropped. Complete lines may accumulate without bound; ErrLineTooLong is
// returned when the unterminated line after the last '\n' would exceed max.
func (b *lineBuffer) feed(chunk []byte) ([]string, error) {
	if len(chunk) == 0 {
		return nil, nil
	}

	partial := len(b.buf) - b.tail
	last := bytes.LastIndexByte(chunk, '\n')
	if last < 0 {
		if partial+len(chunk) > b.max {
			return nil, ErrLineTooLong
		}
	} else if partial+bytes.IndexByte(chunk, '\n') > b.max || len(chunk)-last-1 > b.max {
		return nil, ErrLineTooLong
	}

	if last >= 0 {
		b.tail = len(b.buf) + last + 1
	}
	b.buf = append(b.buf, chunk...)
	if chunk[len(chunk)-1] != '\n' {
		return nil, nil
	}

	// One string per cycle; lines are substrings of it.
	data := string(b.buf)
	b.buf = b.buf[:0]
	b.tail = 0

	var lines []string
	start := -1
	for i := 0; i < len(data); i++ {
		if data[i] == '\r' || data[i] == '\n' {
			if start >= 0 {
				lines = append(lines, data[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return lines, nil
}

// pending reports the number of buffered bytes awaiting a terminated read.
func (b *lineBuffer) pending() int {
	return len(b.buf)
}
