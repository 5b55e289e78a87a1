package pricing

import "unicode/utf8"

// streamDecoder decodes UTF-8 incrementally, holding back a trailing
// incomplete multi-byte sequence until the next chunk completes it. Chunk
// boundaries therefore never corrupt a rune.
type streamDecoder struct {
	pending []byte
}

// Decode appends p and returns the longest decodable prefix as a string.
// Bytes that could be the start of a rune whose continuation has not arrived
// yet are retained for the next call.
func (d *streamDecoder) Decode(p []byte) string {
	d.pending = append(d.pending, p...)

	valid := len(d.pending)
	for i := len(d.pending) - 1; i >= 0 && i > len(d.pending)-utf8.UTFMax; i-- {
		b := d.pending[i]
		if b < utf8.RuneSelf {
			// ASCII byte: everything up to the end is complete.
			break
		}
		if b >= 0xC0 {
			// Rune start: hold it back unless the full rune is present.
			if !utf8.FullRune(d.pending[i:]) {
				valid = i
			}
			break
		}
		// Continuation byte: keep scanning backwards for the rune start.
	}

	out := string(d.pending[:valid])
	d.pending = append(d.pending[:0], d.pending[valid:]...)
	return out
}

// Flush returns whatever bytes remain, complete or not. Called at stream end
// so a truncated trailing sequence is still surfaced rather than dropped.
func (d *streamDecoder) Flush() string {
	out := string(d.pending)
	d.pending = d.pending[:0]
	return out
}
