// Package richtext converts the loosely typed rich-text values stored in knowledge-base tables
// into sanitized HTML or plain text.
package richtext

import (
	"encoding/json"
	"strconv"
)

// Kind is the type of a rich-text node.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindParagraph
	KindHeading1
	KindHeading2
	KindHeading3
	KindBulletedList
	KindOrderedList
	KindListItem
	KindCodeBlock
	KindQuote
	KindHR
	KindImage
	KindLink
)

var kindNames = map[string]Kind{
	"text":          KindText,
	"paragraph":     KindParagraph,
	"heading1":      KindHeading1,
	"heading2":      KindHeading2,
	"heading3":      KindHeading3,
	"bulleted_list": KindBulletedList,
	"ordered_list":  KindOrderedList,
	"list_item":     KindListItem,
	"code_block":    KindCodeBlock,
	"quote":         KindQuote,
	"hr":            KindHR,
	"image":         KindImage,
	"link":          KindLink,
}

// ParseKind maps a node type name to its Kind. Unrecognized names map to KindUnknown.
func ParseKind(name string) Kind {
	return kindNames[name]
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}

	return "unknown"
}

// Node is one element of a rich-text tree.
type Node struct {
	Text          string
	URL           string
	Children      []Node
	Kind          Kind
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Code          bool
}

// nodeFromValue builds a node from a decoded mapping. Values that are not mappings are rejected.
func nodeFromValue(v any) (Node, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Node{}, false
	}

	typeName, _ := m["type"].(string)

	n := Node{
		Kind:          ParseKind(typeName),
		Bold:          truthy(m["bold"]),
		Italic:        truthy(m["italic"]),
		Underline:     truthy(m["underline"]),
		Strikethrough: truthy(m["strikethrough"]),
		Code:          truthy(m["code"]),
	}

	if text, ok := m["text"]; ok {
		n.Text = stringify(text)
	}

	if u, ok := m["url"]; ok {
		n.URL = stringify(u)
	}

	if children, ok := m["children"].([]any); ok {
		n.Children = nodesFromValues(children)
	}

	return n, true
}

// nodesFromValues builds nodes from a decoded sequence, skipping elements that are not mappings.
func nodesFromValues(values []any) []Node {
	nodes := make([]Node, 0, len(values))

	for _, v := range values {
		if n, ok := nodeFromValue(v); ok {
			nodes = append(nodes, n)
		}
	}

	return nodes
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	case float64:
		return val != 0
	case int:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// stringify renders a decoded value as text: strings as-is, scalars in their literal form
// and collections as JSON.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}

		return string(data)
	}
}
