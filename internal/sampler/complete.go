package sampler

import "github.com/simonhull/firebird-suite/wren/internal/document"

// placeholderText fills synthesized children. Deterministic on purpose:
// re-running a selection must produce byte-identical synthetic content.
const placeholderText = "placeholder"

// PlaceholderAttr marks synthesized nodes in the emitted sample so
// consumers can tell injected content from sampled content.
const PlaceholderAttr = "wren-placeholder"

// complete applies the completion policy to a freshly selected clone:
// element kinds that are structurally invalid without certain children get
// deterministic placeholder children for any that are missing. The sample
// stays valid against a schema that declares those children expected, at
// the cost of content not present in the source.
func (s *selector) complete(el *document.Element) {
	// Recurse before appending: synthesized placeholders are terminal and
	// are never themselves completed, so cyclic rules cannot loop.
	for _, c := range el.Children {
		s.complete(c)
	}
	for _, childTag := range s.opts.RequiredChildren[el.Tag] {
		if el.HasChild(childTag) {
			continue
		}
		el.Children = append(el.Children, &document.Element{
			Tag:   childTag,
			Depth: el.Depth + 1,
			Text:  placeholderText,
			Attrs: map[string]string{PlaceholderAttr: "true"},
		})
		s.selection.Synthesized++
	}
}
