// Package xsdgen infers a permissive XSD from a structural profile: one
// element plus complex-type declaration per discovered tag, children as
// optional unbounded references, attributes as strings. The result accepts
// the original document and anything sharing its vocabulary; occurrence
// counts, value types, and ordering constraints are deliberately not
// inferred.
package xsdgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/wren/internal/analyzer"
)

// Options carries the schema-generation knobs from the config surface.
type Options struct {
	TargetNamespace        string
	ElementFormQualified   bool
	AttributeFormQualified bool
}

// Generate emits schema text for every tag in the profile. Output order is
// deterministic: root tags first, then the rest lexicographically.
func Generate(profile *analyzer.Profile, opts Options) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"`)
	if opts.TargetNamespace != "" {
		b.WriteString(fmt.Sprintf("\n           targetNamespace=\"%s\"", opts.TargetNamespace))
		b.WriteString(fmt.Sprintf("\n           xmlns=\"%s\"", opts.TargetNamespace))
	}
	b.WriteString(fmt.Sprintf("\n           elementFormDefault=%q", form(opts.ElementFormQualified)))
	b.WriteString(fmt.Sprintf("\n           attributeFormDefault=%q", form(opts.AttributeFormQualified)))
	b.WriteString(">\n\n")

	for _, tag := range orderedTags(profile) {
		writeType(&b, profile.Types[tag])
	}

	b.WriteString("</xs:schema>\n")
	return b.String()
}

func form(qualified bool) string {
	if qualified {
		return "qualified"
	}
	return "unqualified"
}

func orderedTags(profile *analyzer.Profile) []string {
	var roots, rest []string
	isRoot := make(map[string]bool, len(profile.RootTags))
	for _, r := range profile.RootTags {
		if _, ok := profile.Types[r]; ok && !isRoot[r] {
			isRoot[r] = true
			roots = append(roots, r)
		}
	}
	for tag := range profile.Types {
		if !isRoot[tag] {
			rest = append(rest, tag)
		}
	}
	sort.Strings(rest)
	return append(roots, rest...)
}

func writeType(b *strings.Builder, ti *analyzer.ElementTypeInfo) {
	name := localName(ti.Tag)
	typeName := name + "Type"

	fmt.Fprintf(b, "  <xs:element name=%q type=%q/>\n", name, typeName)

	mixed := ""
	if ti.HasText {
		mixed = ` mixed="true"`
	}
	fmt.Fprintf(b, "  <xs:complexType name=%q%s>\n", typeName, mixed)

	children := uniqueLocals(ti.ChildTagNames())
	if len(children) > 0 {
		b.WriteString("    <xs:sequence>\n")
		for _, child := range children {
			fmt.Fprintf(b, "      <xs:element ref=%q minOccurs=\"0\" maxOccurs=\"unbounded\"/>\n", child)
		}
		b.WriteString("    </xs:sequence>\n")
	}

	for _, attr := range uniqueLocals(ti.AttributeNames()) {
		fmt.Fprintf(b, "    <xs:attribute name=%q type=\"xs:string\"/>\n", attr)
	}

	b.WriteString("  </xs:complexType>\n\n")
}

// localName strips a namespace prefix: XSD declarations address the
// vocabulary by local name, the sample's xmlns attributes carry the
// prefix mapping.
func localName(tag string) string {
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

func uniqueLocals(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		local := localName(t)
		if !seen[local] {
			seen[local] = true
			out = append(out, local)
		}
	}
	return out
}
