package position

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// UTF16Column returns the column of byteOffset in src, counted in UTF-16 code
// units from the start of its line. JS engines report columns this way, while
// tree-sitter reports bytes. Offsets past the end of src are clamped.
func UTF16Column(src string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(src) {
		byteOffset = len(src)
	}

	line := src[strings.LastIndexByte(src[:byteOffset], '\n')+1 : byteOffset]

	units := 0
	for len(line) > 0 {
		r, size := utf8.DecodeRuneInString(line)
		if r == utf8.RuneError && size <= 1 {
			// Invalid UTF-8 byte; count it as a single unit
			units++
			line = line[1:]
			continue
		}
		units += utf16.RuneLen(r)
		line = line[size:]
	}
	return units
}
