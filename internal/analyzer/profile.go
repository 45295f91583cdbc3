// Package analyzer builds a structural profile of an XML document: the
// element and attribute vocabulary, parent-child relationships, depth
// statistics, and a bounded set of example instances per tag.
package analyzer

import (
	"sort"

	"github.com/simonhull/firebird-suite/wren/internal/document"
)

// ElementTypeInfo aggregates everything observed for one tag name.
type ElementTypeInfo struct {
	Tag        string
	Count      int
	Attributes map[string]int
	ChildTags  map[string]int
	MaxDepth   int
	HasText    bool

	// Examples holds up to the per-type cap of instances, each a bounded
	// clone so one cached example can never pin a whole subtree of a
	// multi-hundred-megabyte document.
	Examples []*document.Element

	attrOrder  []string
	childOrder []string
}

// AttributeNames returns attribute names in first-seen order.
func (ti *ElementTypeInfo) AttributeNames() []string {
	return append([]string(nil), ti.attrOrder...)
}

// ChildTagNames returns child tag names in first-seen order.
func (ti *ElementTypeInfo) ChildTagNames() []string {
	return append([]string(nil), ti.childOrder...)
}

func (ti *ElementTypeInfo) recordAttr(name string) {
	if _, seen := ti.Attributes[name]; !seen {
		ti.attrOrder = append(ti.attrOrder, name)
	}
	ti.Attributes[name]++
}

func (ti *ElementTypeInfo) recordChild(tag string) {
	if _, seen := ti.ChildTags[tag]; !seen {
		ti.childOrder = append(ti.childOrder, tag)
	}
	ti.ChildTags[tag]++
}

// TagCount pairs a name with an occurrence count for summary reporting.
type TagCount struct {
	Name  string
	Count int
}

// Profile is the immutable output of analysis. It is built once per input
// and read-only afterwards; every downstream consumer (sampler, schema
// inference, reporting) shares the same instance without locking.
type Profile struct {
	TotalElements int
	MaxDepth      int
	RootTags      []string
	Types         map[string]*ElementTypeInfo
	Namespaces    map[string]string

	// Partial is set when analysis stopped before consuming the whole
	// document: a safety ceiling was hit or strict parsing failed partway.
	// Counts are exact up to that point and a lower bound beyond it.
	Partial       bool
	PartialReason string

	tagOrder []string
}

func newProfile() *Profile {
	return &Profile{
		Types:      make(map[string]*ElementTypeInfo),
		Namespaces: make(map[string]string),
	}
}

func (p *Profile) typeInfo(tag string) *ElementTypeInfo {
	ti, ok := p.Types[tag]
	if !ok {
		ti = &ElementTypeInfo{
			Tag:        tag,
			Attributes: make(map[string]int),
			ChildTags:  make(map[string]int),
		}
		p.Types[tag] = ti
		p.tagOrder = append(p.tagOrder, tag)
	}
	return ti
}

// TagsInOrder returns every discovered tag in first-seen order.
func (p *Profile) TagsInOrder() []string {
	return append([]string(nil), p.tagOrder...)
}

// TopElements returns the n most frequent tags, ties broken by name.
func (p *Profile) TopElements(n int) []TagCount {
	counts := make([]TagCount, 0, len(p.Types))
	for tag, ti := range p.Types {
		counts = append(counts, TagCount{Name: tag, Count: ti.Count})
	}
	return topN(counts, n)
}

// TopAttributes returns the n most frequent attribute names across all
// tags, ties broken by name.
func (p *Profile) TopAttributes(n int) []TagCount {
	merged := make(map[string]int)
	for _, ti := range p.Types {
		for name, c := range ti.Attributes {
			merged[name] += c
		}
	}
	counts := make([]TagCount, 0, len(merged))
	for name, c := range merged {
		counts = append(counts, TagCount{Name: name, Count: c})
	}
	return topN(counts, n)
}

func topN(counts []TagCount, n int) []TagCount {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
