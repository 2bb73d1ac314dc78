package tts

// The synthesis voice is selectable from a small fixed set; anything else
// is rejected at construction time rather than at the first request.
var voices = []string{"alloy", "verse", "coral", "sage"}

// DefaultVoice is used when no voice is configured.
const DefaultVoice = "alloy"

// Voices returns the enumerated set of available voice identifiers.
func Voices() []string {
	out := make([]string, len(voices))
	copy(out, voices)
	return out
}

// IsVoice reports whether name is a known voice identifier.
func IsVoice(name string) bool {
	for _, v := range voices {
		if v == name {
			return true
		}
	}
	return false
}
