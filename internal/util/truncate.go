package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateBytes trims a string to at most maxBytes, never splitting a rune.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	i := maxBytes
	for i > 0 && !utf8.RuneStart(input[i]) {
		i--
	}
	return input[:i], true
}

// TruncateLines limits lines and total byte count.
func TruncateLines(lines []string, maxLines int, maxBytes int) (out []string, truncated bool) {
	if maxLines <= 0 && maxBytes <= 0 {
		return lines, false
	}
	byteCount := 0
	for _, line := range lines {
		if maxLines > 0 && len(out) >= maxLines {
			return out, true
		}
		sep := 0
		if len(out) > 0 {
			sep = 1
		}
		if maxBytes > 0 && byteCount+sep+len(line) > maxBytes {
			return out, true
		}
		byteCount += sep + len(line)
		out = append(out, line)
	}
	return out, false
}

// Preview returns a short preview of text by limiting lines and bytes.
func Preview(text string, maxLines int, maxBytes int) string {
	if text == "" {
		return ""
	}
	trimmed, truncated := TruncateLines(strings.Split(text, "\n"), maxLines, maxBytes)
	out := strings.Join(trimmed, "\n")
	if truncated {
		out += "\n..."
	}
	return out
}
