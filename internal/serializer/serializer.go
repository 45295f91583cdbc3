// Package serializer renders a selection back into syntactically valid,
// indented XML under a global emitted-element budget.
package serializer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/wren/internal/analyzer"
	"github.com/simonhull/firebird-suite/wren/internal/document"
	"github.com/simonhull/firebird-suite/wren/internal/sampler"
)

const indent = "  "

// Serialize emits the selection as a well-formed document: XML
// declaration, a doctype-style comment naming the root when one is known,
// the root element carrying the profile's namespace declarations, then
// each selected non-root element nested by depth. maxElements is a global
// budget threaded through the recursion; emission stops mid-tree once it
// is spent, and any element already started is still closed.
//
// Ordering by depth approximates the original nesting for the shallow,
// mostly-flat documents this tool targets; it is not a general tree
// reconstruction for arbitrarily interleaved deep structures.
func Serialize(sel *sampler.Selection, profile *analyzer.Profile, maxElements int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")

	rootTag := ""
	if len(profile.RootTags) > 0 {
		rootTag = profile.RootTags[0]
	}
	if rootTag == "" {
		rootTag = "root"
	}
	b.WriteString(fmt.Sprintf("<!-- sampled document, root element: %s -->\n", rootTag))

	b.WriteString("<" + rootTag)
	for _, prefix := range sortedPrefixes(profile.Namespaces) {
		name := "xmlns"
		if prefix != "" {
			name = "xmlns:" + prefix
		}
		b.WriteString(fmt.Sprintf(` %s="%s"`, name, escapeAttr(profile.Namespaces[prefix])))
	}
	b.WriteString(">\n")

	budget := maxElements
	truncated := false
	for _, el := range sel.Elements {
		if isRoot(el, rootTag) {
			continue
		}
		if budget <= 0 {
			truncated = true
			break
		}
		writeElement(&b, el, &budget)
	}
	if truncated || budget <= 0 {
		b.WriteString(indent + "<!-- truncated: element budget reached -->\n")
	}

	b.WriteString("</" + rootTag + ">\n")
	return b.String()
}

func isRoot(el *document.Element, rootTag string) bool {
	return el.Depth == 0 && el.Tag == rootTag
}

func writeElement(b *strings.Builder, el *document.Element, budget *int) {
	*budget--

	pad := strings.Repeat(indent, el.Depth)
	if el.Depth == 0 {
		// Lenient profiles can surface depth-0 elements under a
		// different root tag; indent them one level inside the wrapper.
		pad = indent
	}

	b.WriteString(pad + "<" + el.Tag)
	for _, name := range sortedAttrNames(el.Attrs) {
		b.WriteString(fmt.Sprintf(` %s="%s"`, name, escapeAttr(el.Attrs[name])))
	}

	if len(el.Children) == 0 && el.Text == "" {
		b.WriteString("/>\n")
		return
	}

	b.WriteString(">")
	if el.Text != "" {
		b.WriteString(escapeText(el.Text))
	}

	if len(el.Children) > 0 {
		b.WriteString("\n")
		for _, c := range el.Children {
			if *budget <= 0 {
				// Budget spent mid-tree: stop descending but keep the
				// output well-formed by closing what was opened.
				break
			}
			writeElement(b, c, budget)
		}
		b.WriteString(pad)
	}
	b.WriteString("</" + el.Tag + ">\n")
}

func sortedAttrNames(attrs map[string]string) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedPrefixes(namespaces map[string]string) []string {
	prefixes := make([]string, 0, len(namespaces))
	for prefix := range namespaces {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeAttr(s string) string { return attrEscaper.Replace(s) }

func escapeText(s string) string { return textEscaper.Replace(s) }
