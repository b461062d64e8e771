package directive

import (
	"strings"

	"github.com/twardoch/zmarkdown/internal/mdast"
)

// compileBlock serializes a directive block as its opening tag followed by
// the body's continuation lines.
func compileBlock(c *mdast.Compiler, n *mdast.Node) string {
	var title, body string
	for _, child := range n.Children {
		switch child.Type {
		case HeadingType(n.Name):
			title = c.One(child)
		case BodyType(n.Name):
			body = c.One(child)
		}
	}

	tag := "[[" + n.Name + "]]"
	if title != "" {
		tag = "[[" + n.Name + " | " + title + "]]"
	}
	if body == "" {
		return tag
	}
	return tag + "\n" + body
}

func compileHeading(c *mdast.Compiler, n *mdast.Node) string {
	return strings.Join(c.All(n), "")
}

// compileBody prefixes every line of every child with "| ". Empty lines
// become a bare "|", and children are separated by one.
func compileBody(c *mdast.Compiler, n *mdast.Node) string {
	var lines []string
	for i, part := range c.All(n) {
		if i > 0 {
			lines = append(lines, "|")
		}
		for _, line := range strings.Split(part, "\n") {
			if line == "" {
				lines = append(lines, "|")
			} else {
				lines = append(lines, "| "+line)
			}
		}
	}
	return strings.Join(lines, "\n")
}
