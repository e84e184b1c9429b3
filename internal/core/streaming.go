package core

// streaming.go provides the readers an uploaded file passes through before it
// reaches a tokenizer.
//
//   - LimitedReader: fails with ErrFileTooLarge once a size cap is crossed
//   - BOMSkippingReader: drops a leading UTF-8 byte order mark
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//
// Spreadsheets only pass through the LimitedReader; the text transforms would
// corrupt their binary container.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned by LimitedReader when the cap is exceeded.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LimitedReader reads at most Max bytes. Unlike io.LimitReader it reports an
// error instead of a silent EOF so a truncated file is never validated.
type LimitedReader struct {
	r    io.Reader
	max  int64
	read int64
}

// NewLimitedReader wraps r with a byte cap. A cap <= 0 disables the check.
func NewLimitedReader(r io.Reader, max int64) *LimitedReader {
	return &LimitedReader{r: r, max: max}
}

// Read implements io.Reader.
func (l *LimitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.max > 0 && l.read > l.max {
		return n, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, l.max)
	}
	return n, err
}

// BytesRead returns how many bytes have passed through the reader.
func (l *LimitedReader) BytesRead() int64 {
	return l.read
}

// BOMSkippingReader drops the UTF-8 BOM Windows tools put at the start of
// exported CSV files.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := b.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.br.Read(p)
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as data streams through.
// A multi-byte sequence split across two reads is held back until the next
// read so it is not mistaken for garbage.
type UTF8Sanitizer struct {
	r       io.Reader
	carry   []byte
	scratch []byte
}

// NewUTF8Sanitizer creates a streaming sanitizer over r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, carry: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader. The output never grows: each invalid byte
// becomes exactly one '?'.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	// Room for the carried bytes must come out of p, or the output could grow.
	want := len(p) - len(s.carry)
	if want <= 0 {
		want = 1
	}
	if cap(s.scratch) < want {
		s.scratch = make([]byte, want)
	}
	buf := s.scratch[:want]

	n, err := s.r.Read(buf)
	data := append(s.carry, buf[:n]...)
	s.carry = s.carry[:0]
	atEOF := err == io.EOF

	out, i := 0, 0
	for i < len(data) && out < len(p) {
		c := data[i]
		if c < utf8.RuneSelf {
			p[out] = c
			out++
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			p[out] = '?'
			out++
			i++
			continue
		}
		if out+size > len(p) {
			break
		}
		copy(p[out:], data[i:i+size])
		out += size
		i += size
	}
	s.carry = append(s.carry, data[i:]...)

	if atEOF && len(s.carry) > 0 {
		err = nil
	}
	return out, err
}

// WrapForText applies the BOM and UTF-8 transforms used for delimited text.
func WrapForText(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(NewBOMSkippingReader(r))
}
