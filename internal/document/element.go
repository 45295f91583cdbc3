// Package document holds the in-memory element model shared by the
// analyzer, sampler, and serializer, plus the input codec that turns raw
// (possibly compressed) bytes into document text.
package document

// Element is one structural unit of an XML document: its tag name (in the
// namespace-qualified form it appeared with), attributes, ordered children,
// optional text content, and depth below the document root (root = 0).
//
// Elements deliberately carry no parent pointer. Ancestry is tracked by the
// analyzer with an explicit stack while the tree is being built, and depth
// is stamped on every node, so cloned and synthesized subtrees can never
// form reference cycles.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Children []*Element
	Text     string
	Depth    int
}

// Attr returns the value of the named attribute, or "" if absent.
func (e *Element) Attr(name string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}

// HasChild reports whether any direct child carries the given tag.
func (e *Element) HasChild(tag string) bool {
	for _, c := range e.Children {
		if c.Tag == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the element and its subtree. Selected
// elements are always clones: completion-policy edits must never reach
// back into the profile's cached examples.
func (e *Element) Clone() *Element {
	return e.cloneBounded(-1, new(int))
}

// CloneBounded deep-copies at most maxNodes nodes of the subtree
// (breadth-biased: a child subtree is dropped whole once the budget is
// spent). maxNodes <= 0 means unbounded.
func (e *Element) CloneBounded(maxNodes int) *Element {
	if maxNodes <= 0 {
		return e.Clone()
	}
	return e.cloneBounded(maxNodes, new(int))
}

func (e *Element) cloneBounded(maxNodes int, used *int) *Element {
	*used++
	out := &Element{
		Tag:   e.Tag,
		Text:  e.Text,
		Depth: e.Depth,
	}
	if len(e.Attrs) > 0 {
		out.Attrs = make(map[string]string, len(e.Attrs))
		for k, v := range e.Attrs {
			out.Attrs[k] = v
		}
	}
	for _, c := range e.Children {
		if maxNodes > 0 && *used >= maxNodes {
			break
		}
		out.Children = append(out.Children, c.cloneBounded(maxNodes, used))
	}
	return out
}

// Size returns the number of nodes in the subtree, including the element
// itself.
func (e *Element) Size() int {
	n := 1
	for _, c := range e.Children {
		n += c.Size()
	}
	return n
}
