package keyboard

import (
	"bytes"
	"io"
)

// sequences maps terminal escape sequences to the keys they encode
var sequences = []struct {
	seq []byte
	key Key
}{
	{[]byte("\x1b[20~"), KeyF9},
}

// Reader wraps a raw-mode terminal input stream. Function key sequences it
// recognises are removed from the stream and dispatched on the bus; all other
// bytes pass through untouched. Sequences split across reads are not matched.
type Reader struct {
	r   io.Reader
	bus *Bus
}

// NewReader creates a Reader over r
func NewReader(r io.Reader, bus *Bus) *Reader {
	return &Reader{r: r, bus: bus}
}

func (k *Reader) Read(p []byte) (int, error) {
	for {
		n, err := k.r.Read(p)
		if n == 0 {
			return n, err
		}

		n = k.strip(p[:n])
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// Close closes the underlying reader when it supports closing
func (k *Reader) Close() error {
	if c, ok := k.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// strip removes every known sequence from buf in place and returns the new length
func (k *Reader) strip(buf []byte) int {
	for {
		first, firstAt := -1, len(buf)
		for i, s := range sequences {
			if at := bytes.Index(buf, s.seq); at >= 0 && at < firstAt {
				first, firstAt = i, at
			}
		}
		if first < 0 {
			return len(buf)
		}

		s := sequences[first]
		buf = append(buf[:firstAt], buf[firstAt+len(s.seq):]...)
		k.bus.Dispatch(Event{Key: s.key})
	}
}
