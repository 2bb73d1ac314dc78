package sentence

import (
	"regexp"
	"strings"
	"testing"
)

func collect(t *testing.T, fragments []string, maxLen int) []string {
	t.Helper()

	acc := New(maxLen)
	var out []string
	for _, f := range fragments {
		if s, ok := acc.Add(f); ok {
			out = append(out, s)
		}
	}
	if s, ok := acc.Flush(); ok {
		out = append(out, s)
	}
	return out
}

func TestAccumulator(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		want      []string
	}{
		{
			name:      "two sentences across fragments",
			fragments: []string{"Hello", " there.", " How can", " I help?"},
			want:      []string{"Hello there.", "How can I help?"},
		},
		{
			name:      "single fragment single sentence",
			fragments: []string{"Hi."},
			want:      []string{"Hi."},
		},
		{
			name:      "exclamation and question marks",
			fragments: []string{"Wow!", " Really?"},
			want:      []string{"Wow!", "Really?"},
		},
		{
			name:      "punctuation followed by whitespace",
			fragments: []string{"Done. "},
			want:      []string{"Done."},
		},
		{
			name:      "trailing text flushed without punctuation",
			fragments: []string{"First.", " and then some more"},
			want:      []string{"First.", "and then some more"},
		},
		{
			name:      "whitespace only fragments discarded",
			fragments: []string{"   ", "\n", "  . "},
			want:      []string{"."},
		},
		{
			name:      "empty stream",
			fragments: nil,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, tt.fragments, 0)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d sentences %q, got %d %q", len(tt.want), tt.want, len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestForcedFlushAtThreshold(t *testing.T) {
	acc := New(200)

	// 250 characters, no terminal punctuation, fed in 10-char fragments.
	frag := strings.Repeat("abcdefghij", 1)
	var flushed []string
	for i := 0; i < 25; i++ {
		if s, ok := acc.Add(frag); ok {
			flushed = append(flushed, s)
		}
	}

	if len(flushed) != 1 {
		t.Fatalf("expected exactly one forced flush, got %d", len(flushed))
	}
	// The flush fires on the first Add that pushes the buffer past 200.
	if len(flushed[0]) != 210 {
		t.Errorf("expected forced sentence of 210 chars, got %d", len(flushed[0]))
	}

	if s, ok := acc.Flush(); !ok || len(s) != 40 {
		t.Errorf("expected 40-char remainder, got %q ok=%v", s, ok)
	}
}

func TestConcatenationPreserved(t *testing.T) {
	fragments := []string{"The quick", " brown fox. ", "It jumps!", " Over", " the dog?", " yes"}

	acc := New(0)
	var parts []string
	for _, f := range fragments {
		if s, ok := acc.Add(f); ok {
			parts = append(parts, s)
		}
	}
	if s, ok := acc.Flush(); ok {
		parts = append(parts, s)
	}

	// Concatenation equals the input modulo boundary whitespace.
	squash := func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	}
	want := squash(strings.Join(fragments, ""))
	got := squash(strings.Join(parts, " "))
	if got != want {
		t.Errorf("content lost or reordered:\nwant %q\ngot  %q", want, got)
	}

	for i, s := range parts {
		if strings.TrimSpace(s) == "" {
			t.Errorf("sentence %d is empty after trimming", i)
		}
	}
}

// TestMatchesCollectThenSplit checks the incremental strategy yields the
// same sentence set as splitting the fully collected text, for input where
// every sentence ends with terminal punctuation.
func TestMatchesCollectThenSplit(t *testing.T) {
	fragments := []string{
		"Good morning. ", "Let's get ", "started! First que", "stion: how are you? ",
		"Take your time.",
	}

	incremental := collect(t, fragments, 0)

	full := strings.Join(fragments, "")
	re := regexp.MustCompile(`[^.!?]*[.!?]`)
	var reference []string
	for _, m := range re.FindAllString(full, -1) {
		if s := strings.TrimSpace(m); s != "" {
			reference = append(reference, s)
		}
	}

	// The incremental accumulator merges sentences that complete within one
	// fragment, so compare the concatenated content rather than the counts.
	squash := func(ss []string) string {
		return strings.Join(strings.Fields(strings.Join(ss, " ")), " ")
	}
	if squash(incremental) != squash(reference) {
		t.Errorf("strategies disagree:\nincremental %q\nreference   %q", incremental, reference)
	}
}

func TestLen(t *testing.T) {
	acc := New(0)
	acc.Add("partial")
	if acc.Len() != len("partial") {
		t.Errorf("expected Len %d, got %d", len("partial"), acc.Len())
	}
	acc.Flush()
	if acc.Len() != 0 {
		t.Errorf("expected empty buffer after flush, got %d", acc.Len())
	}
}
