package richtext

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"
)

// textMarks lists inline formatting from the innermost to the outermost wrapper.
var textMarks = []struct {
	set func(Node) bool
	tag string
}{
	{tag: "code", set: func(n Node) bool { return n.Code }},
	{tag: "s", set: func(n Node) bool { return n.Strikethrough }},
	{tag: "u", set: func(n Node) bool { return n.Underline }},
	{tag: "em", set: func(n Node) bool { return n.Italic }},
	{tag: "strong", set: func(n Node) bool { return n.Bold }},
}

var unsafeSchemes = []string{"javascript:", "vbscript:", "data:"}

// ToHTML renders a rich-text value as HTML. v may be a JSON string, a decoded JSON value
// ([]any, map[string]any), a Node or a []Node. All text is escaped before it is composed into
// markup and nodes of unknown kind are dropped. ToHTML never fails: input that is not valid JSON
// is returned as escaped text.
func ToHTML(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case Node:
		return renderNodes([]Node{val})
	case []Node:
		return renderNodes(val)
	case string:
		if val == "" {
			return ""
		}

		parsed, err := parseJSON(val)
		if err != nil {
			slog.Warn("Failed to parse rich text", slog.Any("error", err), slog.String("raw", val))
			return html.EscapeString(val)
		}

		return renderValue(parsed)
	default:
		return renderValue(val)
	}
}

func renderValue(v any) string {
	switch val := v.(type) {
	case []any:
		return renderNodes(nodesFromValues(val))
	case map[string]any:
		n, _ := nodeFromValue(val)
		if n.Kind != KindUnknown && n.Kind != KindListItem {
			return renderNodes([]Node{n})
		}

		if text, ok := val["text"]; ok {
			return html.EscapeString(stringify(text))
		}

		return html.EscapeString(stringify(val))
	default:
		return html.EscapeString(stringify(val))
	}
}

func renderNodes(nodes []Node) string {
	var sb strings.Builder

	for _, n := range nodes {
		renderNode(&sb, n)
	}

	return sb.String()
}

func renderNode(sb *strings.Builder, n Node) {
	text := html.EscapeString(n.Text)

	switch n.Kind {
	case KindText:
		sb.WriteString(formatText(text, n))
	case KindParagraph:
		wrap(sb, "p", renderNodes(n.Children))
	case KindHeading1:
		wrap(sb, "h1", text)
	case KindHeading2:
		wrap(sb, "h2", text)
	case KindHeading3:
		wrap(sb, "h3", text)
	case KindBulletedList:
		wrap(sb, "ul", renderListItems(n.Children))
	case KindOrderedList:
		wrap(sb, "ol", renderListItems(n.Children))
	case KindCodeBlock:
		wrap(sb, "pre", "<code>"+text+"</code>")
	case KindQuote:
		wrap(sb, "blockquote", text)
	case KindHR:
		sb.WriteString("<hr>")
	case KindImage:
		wrap(sb, "p", "[Image: "+text+"]")
	case KindLink:
		sb.WriteString(`<a href="` + safeURL(n.URL) + `">` + text + "</a>")
	case KindListItem, KindUnknown:
		// list items render only inside a list; unknown kinds are dropped
		slog.Debug("Skipping rich text node", slog.String("kind", n.Kind.String()))
	}
}

func renderListItems(children []Node) string {
	var sb strings.Builder

	for _, child := range children {
		if child.Kind == KindListItem {
			wrap(&sb, "li", renderNodes(child.Children))
		}
	}

	return sb.String()
}

func formatText(text string, n Node) string {
	for _, mark := range textMarks {
		if mark.set(n) {
			text = "<" + mark.tag + ">" + text + "</" + mark.tag + ">"
		}
	}

	return text
}

func wrap(sb *strings.Builder, tag, inner string) {
	sb.WriteString("<" + tag + ">")
	sb.WriteString(inner)
	sb.WriteString("</" + tag + ">")
}

// safeURL neutralizes script-capable schemes. Browsers ignore ASCII control characters and
// whitespace inside a scheme, so they are dropped before the comparison.
func safeURL(u string) string {
	scheme := strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}

		return r
	}, u))

	for _, s := range unsafeSchemes {
		if strings.HasPrefix(scheme, s) {
			return "#"
		}
	}

	return html.EscapeString(u)
}
