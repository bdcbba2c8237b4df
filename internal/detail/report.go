package detail

import (
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "tr": true, "blockquote": true, "pre": true,
}

// RenderReport converts report HTML to plain text for the terminal.
// Block elements start new lines, list items are bulleted, headings are upper-cased.
func RenderReport(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return strings.TrimSpace(src)
	}

	var sb strings.Builder
	// space is set when the source had whitespace after the last text written.
	space := false
	var walk func(n *html.Node, heading bool)
	walk = func(n *html.Node, heading bool) {
		switch n.Type {
		case html.TextNode:
			text := collapseSpace(n.Data)
			if text == "" {
				space = space || n.Data != ""
				return
			}
			if heading {
				text = strings.ToUpper(text)
			}
			if (space || startsWithSpace(n.Data)) && sb.Len() > 0 && !endsWithSpace(sb.String()) {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
			space = strings.TrimRight(n.Data, " \t\r\n") != n.Data
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			case "br":
				newline(&sb)
				return
			case "li":
				newline(&sb)
				sb.WriteString("• ")
			case "td", "th":
				if sb.Len() > 0 && !endsWithSpace(sb.String()) {
					sb.WriteString(" | ")
				}
			}
			if isHeading(n.Data) {
				heading = true
			}
			if blockElements[n.Data] {
				paragraph(&sb)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, heading)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			paragraph(&sb)
		}
	}
	walk(doc, false)

	return strings.TrimSpace(squeezeBlankLines(sb.String()))
}

func isHeading(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func startsWithSpace(s string) bool {
	return strings.TrimLeft(s, " \t\r\n") != s
}

func endsWithSpace(s string) bool {
	return strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
}

func newline(sb *strings.Builder) {
	if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteByte('\n')
	}
}

func paragraph(sb *strings.Builder) {
	if sb.Len() == 0 {
		return
	}
	newline(sb)
	if !strings.HasSuffix(sb.String(), "\n\n") {
		sb.WriteByte('\n')
	}
}

func squeezeBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " ")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
