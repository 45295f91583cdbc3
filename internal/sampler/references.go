package sampler

import (
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/wren/internal/document"
)

// CollectReferences walks a subtree and gathers every ID referenced
// through the configured relationship attributes. Multi-valued attributes
// (whitespace-separated ID lists, common in lexical datasets) contribute
// each token.
func CollectReferences(el *document.Element, relationshipAttrs []string) map[string]struct{} {
	refs := make(map[string]struct{})
	collectReferences(el, relationshipAttrs, refs)
	return refs
}

func collectReferences(el *document.Element, relationshipAttrs []string, refs map[string]struct{}) {
	for _, name := range relationshipAttrs {
		if value := el.Attr(name); value != "" {
			for _, id := range strings.Fields(value) {
				refs[id] = struct{}{}
			}
		}
	}
	for _, c := range el.Children {
		collectReferences(c, relationshipAttrs, refs)
	}
}

// includeReferenced closes the selection over cross-references: every ID
// referenced by a selected element is satisfied by pulling in an example
// carrying that ID, up to MaxElements. Resolver additions may exceed a
// strategy's per-type share but never the overall ceiling. IDs with no
// matching example in the profile's bounded example set are recorded as
// unresolved and omitted.
func (s *selector) includeReferenced() {
	index := s.buildIDIndex()

	pending := make(map[string]struct{})
	for _, el := range s.selection.Elements {
		for id := range CollectReferences(el, s.opts.RelationshipAttrs) {
			pending[id] = struct{}{}
		}
	}

	resolved := make(map[string]bool)
	for len(pending) > 0 {
		// Deterministic iteration keeps the first strategy idempotent.
		ids := make([]string, 0, len(pending))
		for id := range pending {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		pending = make(map[string]struct{})

		for _, id := range ids {
			if resolved[id] {
				continue
			}
			resolved[id] = true
			if s.seenIDs[id] {
				continue
			}
			example, ok := index[id]
			if !ok {
				s.selection.UnresolvedRefs = append(s.selection.UnresolvedRefs, id)
				continue
			}
			// The ID may live nested inside an example that is already
			// selected; nothing to pull in then.
			if s.taken[example] {
				continue
			}
			if s.full() {
				return
			}
			s.add(example)
			// A pulled-in element can reference further IDs; queue them
			// for the next round.
			for next := range CollectReferences(example, s.opts.RelationshipAttrs) {
				if !resolved[next] {
					pending[next] = struct{}{}
				}
			}
		}
	}

	sort.Strings(s.selection.UnresolvedRefs)
}

// buildIDIndex maps every identity value found anywhere in the profile's
// cached examples (including nested nodes) to its outermost example. The
// index is bounded because the example set is.
func (s *selector) buildIDIndex() map[string]*document.Element {
	index := make(map[string]*document.Element)
	for _, tag := range s.profile.TagsInOrder() {
		if s.isRootTag(tag) {
			continue
		}
		for _, ex := range s.profile.Types[tag].Examples {
			indexIDs(ex, ex, s.opts.IdentityAttr, index)
		}
	}
	return index
}

func indexIDs(node, top *document.Element, identityAttr string, index map[string]*document.Element) {
	if id := node.Attr(identityAttr); id != "" {
		if _, exists := index[id]; !exists {
			index[id] = top
		}
	}
	for _, c := range node.Children {
		indexIDs(c, top, identityAttr, index)
	}
}
