package frontend

// Location resolves a byte offset against source text to a 1-based line and
// column. Offsets past the end of src resolve to the final position.
func Location(src []byte, off uint32) (line, col int) {
	if int(off) > len(src) {
		off = uint32(len(src))
	}
	line, col = 1, 1
	for _, b := range src[:off] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// LineAt returns the full source line containing the byte offset, without
// its trailing newline. Used to attach snippets to diagnostics.
func LineAt(src []byte, off uint32) string {
	if int(off) > len(src) {
		off = uint32(len(src))
	}
	start := int(off)
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := int(off)
	for end < len(src) && src[end] != '\n' {
		end++
	}
	return string(src[start:end])
}
