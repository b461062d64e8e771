package mdast

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	thematicBreakRegexp = regexp.MustCompile(
		`^ {0,3}((?:-[ \t]*){3,}|(?:_[ \t]*){3,}|(?:\*[ \t]*){3,})$`)

	atxHeadingRegexp       = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+|$)`)
	atxHeadingCloserRegexp = regexp.MustCompile(`(?:^|[ \t]+)#+[ \t]*$`)

	// Capture groups:
	// 1. Indent
	// 2. Fence punctuations (backquote fence)
	// 3. Untrimmed info string (backquote fence)
	// 4. Fence punctuations (tilde fence)
	// 5. Untrimmed info string (tilde fence)
	codeFenceRegexp = regexp.MustCompile("^( {0,3})(?:(`{3,})([^`]*)|(~{3,})(.*))$")
	// Capture group 1: fence punctuations
	codeFenceCloserRegexp = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})[ \t]*$")

	blockquoteMarkerRegexp = regexp.MustCompile(`^ {0,3}> ?`)

	// Capture groups:
	// 1. Indent
	// 2. Bullet punctuation
	// 3. Ordered list start number
	// 4. Ordered list delimiter
	// 5. Spaces after the marker
	listItemRegexp = regexp.MustCompile(`^( {0,3})(?:([-+*])|([0-9]{1,9})([.)]))(?:([ \t]+)|$)`)
)

// nextLine splits off the first line of value. line excludes the terminator;
// n counts the bytes consumed including it.
func nextLine(value string) (line string, n int) {
	i := strings.IndexByte(value, '\n')
	if i < 0 {
		return value, len(value)
	}
	return value[:i], i + 1
}

func firstLine(value string) string {
	line, _ := nextLine(value)
	return line
}

func isBlank(line string) bool {
	return strings.TrimLeft(line, " \t") == ""
}

func leadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

func stripSpaces(line string, max int) string {
	i := 0
	for i < max && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[i:]
}

func tokenizeNewline(p *Parser, eat *Eater, value string, silent bool) (*Node, bool) {
	line, end := nextLine(value)
	if !isBlank(line) {
		return nil, false
	}
	if silent {
		return nil, true
	}
	for end < len(value) {
		line, n := nextLine(value[end:])
		if !isBlank(line) {
			break
		}
		end += n
	}
	eat.Eat(value[:end], nil)
	return nil, true
}

func tokenizeFencedCode(p *Parser, eat *Eater, value string, silent bool) (*Node, bool) {
	line, end := nextLine(value)
	m := codeFenceRegexp.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	if silent {
		return nil, true
	}
	indent := len(m[1])
	fence, info := m[2], m[3]
	if fence == "" {
		fence, info = m[4], m[5]
	}
	var content []string
	for end < len(value) {
		line, n := nextLine(value[end:])
		end += n
		if c := codeFenceCloserRegexp.FindStringSubmatch(line); c != nil &&
			c[1][0] == fence[0] && len(c[1]) >= len(fence) {
			break
		}
		content = append(content, stripSpaces(line, indent))
	}
	node := &Node{
		Type:  TypeCode,
		Lang:  strings.TrimSpace(info),
		Value: strings.Join(content, "\n"),
	}
	return eat.Eat(value[:end], node), true
}

func tokenizeATXHeading(p *Parser, eat *Eater, value string, silent bool) (*Node, bool) {
	line, end := nextLine(value)
	m := atxHeadingRegexp.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	if silent {
		return nil, true
	}
	text := atxHeadingCloserRegexp.ReplaceAllString(line[len(m[0]):], "")
	text = strings.TrimSpace(text)
	node := &Node{
		Type:     TypeHeading,
		Depth:    len(m[1]),
		Children: p.TokenizeInline(text, advance(eat.Now(), line[:len(m[0])])),
	}
	return eat.Eat(value[:end], node), true
}

func tokenizeThematicBreak(p *Parser, eat *Eater, value string, silent bool) (*Node, bool) {
	line, end := nextLine(value)
	if !thematicBreakRegexp.MatchString(line) {
		return nil, false
	}
	if silent {
		return nil, true
	}
	return eat.Eat(value[:end], &Node{Type: TypeThematicBreak}), true
}

func tokenizeBlockquote(p *Parser, eat *Eater, value string, silent bool) (*Node, bool) {
	if !blockquoteMarkerRegexp.MatchString(firstLine(value)) {
		return nil, false
	}
	if silent {
		return nil, true
	}
	var contents []string
	end := 0
	prevBlank := false
	for end < len(value) {
		rest := value[end:]
		line, n := nextLine(rest)
		if marker := blockquoteMarkerRegexp.FindString(line); marker != "" {
			stripped := line[len(marker):]
			contents = append(contents, stripped)
			prevBlank = isBlank(stripped)
		} else if isBlank(line) || prevBlank || p.Interrupts(InterruptBlockquote, rest) {
			break
		} else {
			// Lazy continuation.
			contents = append(contents, line)
		}
		end += n
	}
	node := &Node{
		Type:     TypeBlockquote,
		Children: p.TokenizeBlock(strings.Join(contents, "\n"), eat.Now()),
	}
	return eat.Eat(value[:end], node), true
}

type listMarker struct {
	ordered bool
	// Bullet character, or the delimiter of an ordered marker.
	punct byte
	start int
	// Column at which item content starts.
	width int
}

func parseListMarker(line string) (listMarker, bool) {
	m := listItemRegexp.FindStringSubmatch(line)
	if m == nil || thematicBreakRegexp.MatchString(line) {
		return listMarker{}, false
	}
	var lm listMarker
	if m[2] != "" {
		lm.punct = m[2][0]
	} else {
		lm.ordered = true
		lm.punct = m[4][0]
		lm.start, _ = strconv.Atoi(m[3])
	}
	lm.width = len(m[0])
	switch spaces := len(m[5]); {
	case spaces == 0:
		lm.width++
	case spaces > 4:
		lm.width -= spaces - 1
	}
	return lm, true
}

func (m listMarker) sameList(other listMarker) bool {
	return m.ordered == other.ordered && m.punct == other.punct
}

// listContinues reports whether the list resumes after the blank lines at the
// start of value.
func listContinues(value string, first listMarker, width int) bool {
	for value != "" {
		line, n := nextLine(value)
		if !isBlank(line) {
			if leadingSpaces(line) >= width {
				return true
			}
			m, ok := parseListMarker(line)
			return ok && m.sameList(first)
		}
		value = value[n:]
	}
	return false
}

func tokenizeList(p *Parser, eat *Eater, value string, silent bool) (*Node, bool) {
	first, ok := parseListMarker(firstLine(value))
	if !ok {
		return nil, false
	}
	if silent {
		return nil, true
	}

	type item struct {
		offset int
		lines  []string
	}
	var items []*item
	end := 0
	width := 0
	prevBlank := false
	for end < len(value) {
		rest := value[end:]
		line, n := nextLine(rest)
		if len(items) > 0 && !isBlank(line) && leadingSpaces(line) >= width {
			cur := items[len(items)-1]
			cur.lines = append(cur.lines, stripSpaces(line, width))
			prevBlank = false
		} else if m, ok := parseListMarker(line); ok && m.sameList(first) {
			items = append(items, &item{offset: end, lines: []string{line[min(m.width, len(line)):]}})
			width = m.width
			prevBlank = false
		} else if isBlank(line) {
			if !listContinues(value[end+n:], first, width) {
				break
			}
			cur := items[len(items)-1]
			cur.lines = append(cur.lines, "")
			prevBlank = true
		} else if _, marker := parseListMarker(line); marker || prevBlank || p.Interrupts(InterruptList, rest) {
			break
		} else {
			// Lazy continuation.
			cur := items[len(items)-1]
			cur.lines = append(cur.lines, strings.TrimLeft(line, " \t"))
		}
		end += n
	}

	base := eat.Now()
	list := &Node{Type: TypeList, Ordered: first.ordered}
	if first.ordered {
		list.Start = first.start
	}
	for i, it := range items {
		stop := end
		if i+1 < len(items) {
			stop = items[i+1].offset
		}
		start := advance(base, value[:it.offset])
		content := strings.TrimRight(strings.Join(it.lines, "\n"), "\n")
		list.Children = append(list.Children, &Node{
			Type:     TypeListItem,
			Children: p.TokenizeBlock(content, start),
			Position: Position{Start: start, End: advance(base, value[:stop])},
		})
	}
	return eat.Eat(value[:end], list), true
}

func tokenizeParagraph(p *Parser, eat *Eater, value string, silent bool) (*Node, bool) {
	line, end := nextLine(value)
	if isBlank(line) {
		return nil, false
	}
	if silent {
		return nil, true
	}
	lines := []string{strings.TrimLeft(line, " \t")}
	for end < len(value) {
		rest := value[end:]
		line, n := nextLine(rest)
		if isBlank(line) || p.Interrupts(InterruptParagraph, rest) {
			break
		}
		lines = append(lines, strings.TrimLeft(line, " \t"))
		end += n
	}
	text := strings.TrimRight(strings.Join(lines, "\n"), " \t")
	node := &Node{
		Type:     TypeParagraph,
		Children: p.TokenizeInline(text, eat.Now()),
	}
	return eat.Eat(value[:end], node), true
}
