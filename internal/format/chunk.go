package format

import "unicode/utf16"

// MaxMessageLength is the largest chunk body sent in one message, counted in
// UTF-16 code units like the chat transport counts them, so an emoji outside
// the BMP weighs 2. The transport caps messages at 4096; the rest is left
// for the continuation marker.
const MaxMessageLength = 4000

// Split cuts text into the fewest contiguous pieces of at most max UTF-16
// code units. Cuts land on rune boundaries, possibly mid-line, so a
// surrogate pair is never separated. Concatenating the pieces gives back
// text.
func Split(text string, max int) []string {
	if max <= 0 || Length(text) <= max {
		return []string{text}
	}

	var pieces []string
	start, units := 0, 0
	for i, r := range text {
		n := runeUnits(r)
		if units > 0 && units+n > max {
			pieces = append(pieces, text[start:i])
			start, units = i, 0
		}
		units += n
	}
	return append(pieces, text[start:])
}

// Length is the size of text in UTF-16 code units.
func Length(text string) int {
	n := 0
	for _, r := range text {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	// invalid runes are sent as U+FFFD
	return 1
}
