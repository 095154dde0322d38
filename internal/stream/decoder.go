// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"strings"
	"unicode/utf8"
)

// frameDelimiter separates events on the wire.
const frameDelimiter = "\n\n"

// Decoder turns raw body chunks into complete frames.
//
// It keeps two pieces of state across calls to Feed: the bytes of a UTF-8
// sequence cut by a read boundary, and the text of a frame whose delimiter
// has not arrived yet. Splitting the same byte stream at any boundaries
// yields the same frames as feeding it in one piece.
type Decoder struct {
	pending []byte
	carry   strings.Builder
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Feed consumes one chunk and returns the frames it completed, in order.
func (d *Decoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	b := chunk
	if len(d.pending) > 0 {
		b = append(d.pending, chunk...)
		d.pending = nil
	}
	if n := incompleteTail(b); n > 0 {
		d.pending = append([]byte(nil), b[len(b)-n:]...)
		b = b[:len(b)-n]
	}
	d.carry.WriteString(decodeUTF8(b))
	return d.split()
}

// Flush ends the stream. A trailing fragment without a delimiter is returned
// as a final frame when it has content.
func (d *Decoder) Flush() []string {
	if len(d.pending) > 0 {
		d.carry.WriteString(decodeUTF8(d.pending))
		d.pending = nil
	}
	frames := d.split()
	rest := d.carry.String()
	d.carry.Reset()
	if strings.TrimSpace(rest) != "" {
		frames = append(frames, rest)
	}
	return frames
}

// split extracts every delimited frame from the carry buffer and keeps the remainder.
func (d *Decoder) split() []string {
	text := d.carry.String()
	if !strings.Contains(text, frameDelimiter) {
		return nil
	}
	var frames []string
	for {
		i := strings.Index(text, frameDelimiter)
		if i < 0 {
			break
		}
		frames = append(frames, text[:i])
		text = text[i+len(frameDelimiter):]
	}
	d.carry.Reset()
	d.carry.WriteString(text)
	return frames
}

// incompleteTail returns how many trailing bytes form the valid prefix of a
// multi-byte sequence that the next chunk may complete.
func incompleteTail(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax+1; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return 0
			}
			return len(b) - i
		}
	}
	return 0
}

// decodeUTF8 converts bytes to text, replacing each invalid byte with U+FFFD.
// Raw carriage returns are dropped so CRLF-delimited streams split like LF ones.
func decodeUTF8(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		switch {
		case r == '\r':
		case r == utf8.RuneError && size == 1:
			sb.WriteRune(utf8.RuneError)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
