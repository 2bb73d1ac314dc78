// Package sentence turns a stream of text fragments into complete sentences.
//
// Generation engines emit tokens a few characters at a time; synthesizing
// each token separately sounds terrible, and waiting for the full reply
// adds seconds of latency. The accumulator buffers fragments and releases
// a sentence as soon as it is complete, so synthesis of the first sentence
// starts while the rest of the reply is still streaming.
package sentence

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the forced-flush threshold in characters.
// It is a safety valve against unbounded buffering when the generation
// output never produces terminal punctuation.
const DefaultMaxLength = 200

// Accumulator buffers ordered text fragments and extracts sentences.
// It is not safe for concurrent use; each response cycle owns one.
type Accumulator struct {
	buf    strings.Builder
	maxLen int
}

// New creates an accumulator with the given forced-flush threshold.
// A non-positive maxLen selects DefaultMaxLength.
func New(maxLen int) *Accumulator {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	return &Accumulator{maxLen: maxLen}
}

// Add appends one fragment. If the buffered text now forms a complete
// sentence, it is returned trimmed and the buffer is cleared. A sentence is
// complete when the buffer ends in terminal punctuation (optionally
// followed by whitespace) or has grown past the length threshold.
// Whitespace-only extractions are discarded and report ok=false.
func (a *Accumulator) Add(fragment string) (sentence string, ok bool) {
	a.buf.WriteString(fragment)

	text := a.buf.String()
	if !endsComplete(text) && utf8.RuneCountInString(text) <= a.maxLen {
		return "", false
	}
	return a.extract()
}

// Flush returns whatever remains buffered as a final sentence.
// Call after the fragment stream completes so trailing text without
// terminal punctuation is still spoken.
func (a *Accumulator) Flush() (sentence string, ok bool) {
	if a.buf.Len() == 0 {
		return "", false
	}
	return a.extract()
}

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int {
	return a.buf.Len()
}

func (a *Accumulator) extract() (string, bool) {
	text := strings.TrimSpace(a.buf.String())
	a.buf.Reset()
	if text == "" {
		return "", false
	}
	return text, true
}

// endsComplete reports whether text ends in sentence-terminal punctuation,
// ignoring trailing whitespace.
func endsComplete(text string) bool {
	text = strings.TrimRight(text, " \t\r\n")
	if text == "" {
		return false
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
