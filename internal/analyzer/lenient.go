package analyzer

import (
	"regexp"
	"strings"

	"github.com/simonhull/firebird-suite/wren/internal/document"
)

// The lenient scanner recovers structure from documents the strict parser
// rejects. It matches tag boundaries with patterns instead of parsing, so
// it may undercount (broken regions are skipped) but it never fails.
var (
	tagPattern  = regexp.MustCompile(`<(/?)([A-Za-z_][A-Za-z0-9_.:-]*)((?:[^<>"']|"[^"]*"|'[^']*')*?)(/?)>`)
	attrPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.:-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// lenientScan builds a best-effort profile directly from text. The caller
// is responsible for marking the result Partial.
func lenientScan(text string, opts Options) *Profile {
	opts = opts.withDefaults()
	p := newProfile()
	p.Partial = true
	p.PartialReason = "lenient scan: strict parse unavailable"

	var stack []string

	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		closer := m[1] == "/"
		tag := m[2]
		rawAttrs := m[3]
		selfClosing := m[4] == "/"

		if closer {
			if len(stack) > 0 && stack[len(stack)-1] == tag {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		depth := len(stack)
		if depth >= opts.MaxDepth || p.TotalElements >= opts.MaxElements {
			p.PartialReason = "lenient scan: safety ceiling reached"
			break
		}

		ti := p.typeInfo(tag)
		ti.Count++
		p.TotalElements++
		if depth > ti.MaxDepth {
			ti.MaxDepth = depth
		}
		if depth > p.MaxDepth {
			p.MaxDepth = depth
		}
		if depth == 0 {
			p.RootTags = appendUnique(p.RootTags, tag)
		} else {
			p.typeInfo(stack[len(stack)-1]).recordChild(tag)
		}

		el := &document.Element{Tag: tag, Depth: depth}
		for _, am := range attrPattern.FindAllStringSubmatch(rawAttrs, -1) {
			name := am[1]
			value := am[2]
			if value == "" {
				value = am[3]
			}
			if name == "xmlns" {
				if _, seen := p.Namespaces[""]; !seen {
					p.Namespaces[""] = value
				}
				continue
			}
			if strings.HasPrefix(name, "xmlns:") {
				prefix := strings.TrimPrefix(name, "xmlns:")
				if _, seen := p.Namespaces[prefix]; !seen {
					p.Namespaces[prefix] = value
				}
				continue
			}
			if el.Attrs == nil {
				el.Attrs = make(map[string]string)
			}
			el.Attrs[name] = value
			ti.recordAttr(name)
		}

		if len(ti.Examples) < opts.ExampleCap {
			ti.Examples = append(ti.Examples, el)
		}

		if !selfClosing {
			stack = append(stack, tag)
		}
	}

	return p
}

// mergeLenient folds a lenient scan into a strict-pass profile. Strict
// results win; the scan only contributes vocabulary the strict pass never
// reached, and pushes totals up to their lower-bound estimate.
func mergeLenient(p, scanned *Profile) {
	for _, tag := range scanned.TagsInOrder() {
		if _, known := p.Types[tag]; known {
			continue
		}
		src := scanned.Types[tag]
		dst := p.typeInfo(tag)
		dst.Count = src.Count
		dst.MaxDepth = src.MaxDepth
		dst.HasText = src.HasText
		dst.Examples = src.Examples
		for _, name := range src.AttributeNames() {
			if _, seen := dst.Attributes[name]; !seen {
				dst.attrOrder = append(dst.attrOrder, name)
			}
			dst.Attributes[name] += src.Attributes[name]
		}
		for _, child := range src.ChildTagNames() {
			if _, seen := dst.ChildTags[child]; !seen {
				dst.childOrder = append(dst.childOrder, child)
			}
			dst.ChildTags[child] += src.ChildTags[child]
		}
	}

	if scanned.TotalElements > p.TotalElements {
		p.TotalElements = scanned.TotalElements
	}
	if scanned.MaxDepth > p.MaxDepth {
		p.MaxDepth = scanned.MaxDepth
	}
	for _, root := range scanned.RootTags {
		p.RootTags = appendUnique(p.RootTags, root)
	}
	for prefix, uri := range scanned.Namespaces {
		if _, seen := p.Namespaces[prefix]; !seen {
			p.Namespaces[prefix] = uri
		}
	}
	p.Partial = true
	if p.PartialReason == "" {
		p.PartialReason = scanned.PartialReason
	}
}
