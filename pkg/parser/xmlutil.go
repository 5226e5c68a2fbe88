package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// readText consumes tokens until the close tag of the current element and
// returns the concatenated character data (CDATA included). Nested markup is
// discarded, its text is not. Text beyond the configured cap is truncated.
func (st *state) readText() (string, error) {
	var sb strings.Builder
	level := 0

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return strings.TrimSpace(sb.String()), nil
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			return strings.TrimSpace(sb.String()), errTokenStream
		}

		switch t := tok.(type) {
		case xml.StartElement:
			level++
			st.descend()
		case xml.EndElement:
			if level == 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			level--
			st.ascend()
		case xml.CharData:
			st.appendBounded(&sb, string(t))
		}
	}
}

// innerXML consumes tokens until the close tag of the current element and
// returns the content re-serialized as markup, used for Atom xhtml
// constructs. Namespace prefixes are not reconstructed.
func (st *state) innerXML() (string, error) {
	var sb strings.Builder
	level := 0

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return sb.String(), nil
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			return sb.String(), errTokenStream
		}

		switch t := tok.(type) {
		case xml.StartElement:
			level++
			st.descend()
			st.appendBounded(&sb, startTag(t))
		case xml.EndElement:
			if level == 0 {
				return sb.String(), nil
			}
			level--
			st.ascend()
			st.appendBounded(&sb, "</"+t.Name.Local+">")
		case xml.CharData:
			st.appendBounded(&sb, escapeText(string(t)))
		}
	}
}

// skipElement drains the rest of the current element without keeping any of
// it. The element's own depth slot is managed by the caller; nested elements
// are counted here so a hostile subtree still trips the depth cap.
func (st *state) skipElement() error {
	level := 0

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			return errTokenStream
		}

		switch tok.(type) {
		case xml.StartElement:
			level++
			st.descend()
		case xml.EndElement:
			if level == 0 {
				return nil
			}
			level--
			st.ascend()
		}
	}
}

// node is one captured extension element: attributes, accumulated text and
// child elements. Namespace handlers walk this instead of the raw token
// stream, so nested structures like category trees stay easy to process.
type node struct {
	space    string
	local    string
	attrs    []xml.Attr
	text     string
	children []*node
}

// attr returns the named attribute value, truncated to the attribute cap.
func (n *node) attr(local string) string {
	return attrValue(n.attrs, local)
}

// child returns the first child with the given local name, nil when absent.
func (n *node) child(local string) *node {
	for _, c := range n.children {
		if c.local == local {
			return c
		}
	}
	return nil
}

// captureNode reads the full subtree of start into a node tree. Depth and
// text caps apply; on depth overflow the remaining subtree is drained but not
// recorded.
func (st *state) captureNode(start xml.StartElement) (*node, error) {
	n := &node{space: start.Name.Space, local: start.Name.Local, attrs: st.boundedAttrs(start.Attr)}
	var sb strings.Builder

	for {
		tok, err := st.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				n.text = strings.TrimSpace(sb.String())
				return n, nil
			}
			st.fault(fmt.Sprintf("XML parsing error: %v", err))
			return nil, errTokenStream
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !st.descend() {
				if err := st.skipElement(); err != nil {
					return nil, err
				}
				st.ascend()
				continue
			}
			child, err := st.captureNode(t)
			if err != nil {
				return nil, err
			}
			st.ascend()
			n.children = append(n.children, child)
		case xml.EndElement:
			n.text = strings.TrimSpace(sb.String())
			return n, nil
		case xml.CharData:
			st.appendBounded(&sb, string(t))
		}
	}
}

// appendBounded grows sb by s up to the text length cap, recording a fault
// once when truncation happens.
func (st *state) appendBounded(sb *strings.Builder, s string) {
	room := st.lims.MaxTextLength - sb.Len()
	if room <= 0 {
		st.limitFault("text", fmt.Sprintf("text length exceeds maximum %d, truncated", st.lims.MaxTextLength))
		return
	}
	if len(s) > room {
		s = s[:room]
		st.limitFault("text", fmt.Sprintf("text length exceeds maximum %d, truncated", st.lims.MaxTextLength))
	}
	sb.WriteString(s)
}

// boundedAttrs copies attrs, truncating oversized values.
func (st *state) boundedAttrs(attrs []xml.Attr) []xml.Attr {
	out := make([]xml.Attr, len(attrs))
	copy(out, attrs)
	for i := range out {
		if len(out[i].Value) > st.lims.MaxAttributeLength {
			out[i].Value = out[i].Value[:st.lims.MaxAttributeLength]
			st.limitFault("attribute", fmt.Sprintf("attribute length exceeds maximum %d, truncated", st.lims.MaxAttributeLength))
		}
	}
	return out
}

// attrValue returns the value of the first attribute with the given local
// name, regardless of namespace.
func attrValue(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func startTag(t xml.StartElement) string {
	var sb strings.Builder
	sb.WriteString("<" + t.Name.Local)
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		sb.WriteString(" " + a.Name.Local + `="` + escapeAttr(a.Value) + `"`)
	}
	sb.WriteString(">")
	return sb.String()
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
