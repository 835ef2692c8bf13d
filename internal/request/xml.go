// internal/request/xml.go
//
// Generic XML document tree for application/xml and text/xml bodies.
//
// Context
// -------
// encoding/xml never resolves entities beyond the five predefined ones, but
// a document carrying a DTD is still rejected outright.  That keeps entity
// declarations, external or internal, from ever reaching a consumer and
// matches the "external entity loader disabled" contract regardless of what
// downstream code does with the tree.
package request

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var (
	errXMLDirective = errors.New("xml: DTD and other directives are not allowed")
	errXMLEmpty     = errors.New("xml: no root element")
	errXMLRoots     = errors.New("xml: more than one root element")
	errXMLStrayText = errors.New("xml: character data outside root element")
)

// XMLNode is one element of a decoded XML body.
type XMLNode struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Text     string // trimmed character data directly inside the element
	Children []*XMLNode
}

// Child returns the first direct child with the given local name.
func (n *XMLNode) Child(local string) *XMLNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// Attr returns the value of the first attribute with the given local name.
func (n *XMLNode) Attr(local string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// decodeXML builds an XMLNode tree from raw.  Strict mode enforces matched
// tags.
func decodeXML(raw []byte) (*XMLNode, error) {
	d := xml.NewDecoder(bytes.NewReader(raw))
	d.Strict = true

	var (
		root  *XMLNode
		stack []*XMLNode
		text  []*strings.Builder
	)

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.Directive:
			return nil, errXMLDirective

		case xml.StartElement:
			n := &XMLNode{Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, errXMLRoots
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})

		case xml.EndElement:
			top := len(stack) - 1
			stack[top].Text = strings.TrimSpace(text[top].String())
			stack, text = stack[:top], text[:top]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errXMLStrayText
				}
				continue
			}
			text[len(text)-1].Write(t)
		}
	}

	if root == nil {
		return nil, errXMLEmpty
	}
	return root, nil
}
