package styles

import (
	"bytes"
	"encoding/xml"
	"strings"
	"unicode/utf8"
)

const (
	fontHeightRatio = 0.22
	fontWidthRatio  = 0.85
	fontCharWidth   = 0.55
	fontSizeMin     = 6.0
	fontSizeMax     = 18.0
)

// FontSize returns the label size that fits the card.
func FontSize(c Card) float64 {
	n := max(1, utf8.RuneCountInString(c.Label))
	byHeight := c.H * fontHeightRatio
	byWidth := (c.W * fontWidthRatio) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

// TruncateLabel shortens the label to what fits at [FontSize].
func TruncateLabel(c Card) string {
	charWidth := FontSize(c) * fontCharWidth
	maxChars := max(3, int(c.W*fontWidthRatio/charWidth))

	runes := []rune(c.Label)
	if len(runes) <= maxChars {
		return c.Label
	}
	return string(runes[:maxChars-2]) + ".."
}

// Initials returns up to two upper-case initials of a display name.
func Initials(name string) string {
	var out []rune
	word := true
	for _, r := range name {
		switch {
		case r == ' ' || r == '-' || r == '_' || r == '.':
			word = true
		case word:
			out = append(out, r)
			word = false
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return strings.ToUpper(string(out))
}

// EscapeXML escapes s for use in SVG text and attributes.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
