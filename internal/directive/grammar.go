package directive

import "strings"

// Marker is a parsed opening tag.
type Marker struct {
	Name string
	// Title is the text after the pipe with leading spaces removed. It is
	// empty when the tag has no pipe or nothing follows it.
	Title string
	// TitleOffset is the byte offset of Title within the line.
	TitleOffset int
}

// HasTitle reports whether a non-empty title was captured.
func (m Marker) HasTitle() bool {
	return m.Title != ""
}

// ParseMarker parses an opening line, given without its terminator:
//
//	"[[" name ( " "* "|" " "* title )? "]]"
//
// The name runs up to the first space, pipe or closing bracket. The title
// extends to the final "]]" of the line and may itself contain brackets.
// Nothing may follow the closing brackets.
func ParseMarker(line string) (Marker, bool) {
	if len(line) < 5 || !strings.HasPrefix(line, "[[") || !strings.HasSuffix(line, "]]") {
		return Marker{}, false
	}
	inner := line[2 : len(line)-2]

	i := strings.IndexAny(inner, " |]")
	switch {
	case i == 0:
		return Marker{}, false
	case i < 0:
		return Marker{Name: inner}, true
	}
	name, rest := inner[:i], inner[i:]

	j := 0
	for j < len(rest) && rest[j] == ' ' {
		j++
	}
	if j == len(rest) || rest[j] != '|' {
		return Marker{}, false
	}
	j++
	for j < len(rest) && rest[j] == ' ' {
		j++
	}
	return Marker{Name: name, Title: rest[j:], TitleOffset: 2 + i + j}, true
}
