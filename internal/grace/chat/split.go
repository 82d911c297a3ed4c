package chat

const (
	// OpenMarker starts an embedded command block.
	OpenMarker = "[json]"
	// CloseMarker ends an embedded command block.
	CloseMarker = "[/json]"
)

// Split is a model reply separated into display text and an optional
// command payload.
type Split struct {
	// Display is everything before the opening marker, or the whole reply
	// when no complete block was found.
	Display string
	// Payload is the text between the markers.
	Payload string
	// Matched is the reply up to and including the closing marker. It is
	// what the model is shown of its own reply in later turns.
	Matched string
	// HasCommand reports whether a complete block was found.
	HasCommand bool
	// Unterminated reports an opening marker without a closing one.
	Unterminated bool
}

// SplitReply finds the first opening marker and the first closing marker
// after it. Markers match case-insensitively and the block may span lines.
// Anything after the closing marker is dropped.
func SplitReply(reply string) Split {
	open := indexFold(reply, OpenMarker, 0)
	if open < 0 {
		return Split{Display: reply, Matched: reply}
	}
	start := open + len(OpenMarker)
	end := indexFold(reply, CloseMarker, start)
	if end < 0 {
		return Split{Display: reply, Matched: reply, Unterminated: true}
	}
	return Split{
		Display:    reply[:open],
		Payload:    reply[start:end],
		Matched:    reply[:end+len(CloseMarker)],
		HasCommand: true,
	}
}

// indexFold returns the byte offset of the first ASCII case-insensitive
// match of marker in s at or after from, or -1. Offsets always refer to s
// itself, so slicing stays exact for non-ASCII replies.
func indexFold(s, marker string, from int) int {
	for i := from; i+len(marker) <= len(s); i++ {
		if equalFoldASCII(s[i:i+len(marker)], marker) {
			return i
		}
	}
	return -1
}

func equalFoldASCII(a, b string) bool {
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
