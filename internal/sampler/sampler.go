package sampler

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/simonhull/firebird-suite/wren/internal/analyzer"
	"github.com/simonhull/firebird-suite/wren/internal/document"
)

// DefaultRelationshipAttrs lists attribute names conventionally carrying
// cross-references. The defaults are tuned for lexical and graph-like
// datasets; override via config for other vocabularies.
var DefaultRelationshipAttrs = []string{
	"idref", "ref", "refid", "target", "members", "synset", "relatedTo",
}

// DefaultIdentityAttr names the attribute treated as an element's identity.
const DefaultIdentityAttr = "id"

// DefaultSafetyMultiplier bounds internal candidate processing at
// MaxElements * multiplier, independent of type cardinality.
const DefaultSafetyMultiplier = 10

// Options configures a selection pass.
type Options struct {
	MaxElements int
	Strategy    Strategy

	PreserveAllTypes      bool
	PreserveAttributes    bool
	PreserveRelationships bool

	// RelationshipAttrs and IdentityAttr default to the package-level
	// defaults when empty.
	RelationshipAttrs []string
	IdentityAttr      string

	// RequiredChildren maps a tag to child tags it is structurally
	// invalid without; missing ones are synthesized on selection.
	RequiredChildren map[string][]string

	// Seed drives the random strategy. Deterministic strategies never
	// consult it.
	Seed int64

	SafetyMultiplier int
}

func (o Options) withDefaults() Options {
	if len(o.RelationshipAttrs) == 0 {
		o.RelationshipAttrs = DefaultRelationshipAttrs
	}
	if o.IdentityAttr == "" {
		o.IdentityAttr = DefaultIdentityAttr
	}
	if o.SafetyMultiplier <= 0 {
		o.SafetyMultiplier = DefaultSafetyMultiplier
	}
	return o
}

// Selection is the sampler's output: a budget-respecting, depth-ordered
// list of cloned elements plus the bookkeeping downstream consumers and
// tests need to observe completeness gaps.
type Selection struct {
	Elements []*document.Element

	// UnresolvedRefs lists referenced IDs no cached example could
	// satisfy. They are omitted from the sample, not errors.
	UnresolvedRefs []string

	// Synthesized counts placeholder children added by the completion
	// policy.
	Synthesized int
}

// Select picks a bounded set of examples from the profile. It fails only
// for invalid configuration or a profile with no root information; every
// other condition (budget exhaustion, unresolved references, partial
// profiles) yields a best-effort selection.
func Select(profile *analyzer.Profile, opts Options) (*Selection, error) {
	if opts.MaxElements <= 0 {
		return nil, fmt.Errorf("maxElements must be positive, got %d", opts.MaxElements)
	}
	if profile == nil || len(profile.RootTags) == 0 {
		return nil, fmt.Errorf("profile has no root element information")
	}
	opts = opts.withDefaults()

	s := &selector{
		profile:   profile,
		opts:      opts,
		selection: &Selection{},
		seenIDs:   make(map[string]bool),
		taken:     make(map[*document.Element]bool),
		budget:    opts.MaxElements * opts.SafetyMultiplier,
	}

	if opts.PreserveAllTypes || opts.Strategy == StrategyPreserveAllTypes {
		s.preserveAllTypes()
	}
	s.fillByStrategy()
	if opts.PreserveRelationships {
		s.includeReferenced()
	}

	// Depth-ascending order approximates the original nesting when the
	// serializer re-emits the unordered selection. The sort is stable, so
	// ties keep selection order and deterministic strategies stay
	// deterministic end to end.
	sort.SliceStable(s.selection.Elements, func(i, j int) bool {
		return s.selection.Elements[i].Depth < s.selection.Elements[j].Depth
	})

	return s.selection, nil
}

type selector struct {
	profile   *analyzer.Profile
	opts      Options
	selection *Selection
	seenIDs   map[string]bool
	taken     map[*document.Element]bool

	// budget counts candidate examinations, not selections; it caps
	// total work on profiles with extreme type cardinality.
	budget int
}

func (s *selector) full() bool {
	return len(s.selection.Elements) >= s.opts.MaxElements
}

func (s *selector) spend() bool {
	if s.budget <= 0 {
		return false
	}
	s.budget--
	return true
}

// add clones the example, applies the completion policy, and appends it.
// Profile examples are never aliased into the selection.
func (s *selector) add(example *document.Element) {
	clone := example.Clone()
	if !s.opts.PreserveAttributes {
		s.stripAttrs(clone)
	}
	s.complete(clone)
	s.selection.Elements = append(s.selection.Elements, clone)
	s.taken[example] = true
	if id := example.Attr(s.opts.IdentityAttr); id != "" {
		s.seenIDs[id] = true
	}
}

// stripAttrs drops every attribute except identity and relationship
// carriers, which must survive for reference resolution to hold.
func (s *selector) stripAttrs(el *document.Element) {
	for name := range el.Attrs {
		if name == s.opts.IdentityAttr || s.isRelationshipAttr(name) {
			continue
		}
		delete(el.Attrs, name)
	}
	for _, c := range el.Children {
		s.stripAttrs(c)
	}
}

func (s *selector) isRelationshipAttr(name string) bool {
	for _, rel := range s.opts.RelationshipAttrs {
		if rel == name {
			return true
		}
	}
	return false
}

// preserveAllTypes guarantees one representative per discovered tag before
// any budget-driven strategy runs. Root-level tags are skipped: the root is
// re-created by the serializer as the sample's wrapper.
func (s *selector) preserveAllTypes() {
	for _, tag := range s.profile.TagsInOrder() {
		if s.full() {
			return
		}
		if s.isRootTag(tag) {
			continue
		}
		ti := s.profile.Types[tag]
		best := s.bestExample(ti)
		if best == nil {
			continue
		}
		s.add(best)
	}
}

// bestExample scores diversity as child count + attribute count + a text
// bonus. Ties go to the lowest index. Examples whose identity duplicates an
// already-selected ID are skipped.
func (s *selector) bestExample(ti *analyzer.ElementTypeInfo) *document.Element {
	var best *document.Element
	bestScore := -1
	for _, ex := range ti.Examples {
		if !s.spend() {
			break
		}
		if s.taken[ex] {
			continue
		}
		if id := ex.Attr(s.opts.IdentityAttr); id != "" && s.seenIDs[id] {
			continue
		}
		score := diversityScore(ex)
		if score > bestScore {
			best = ex
			bestScore = score
		}
	}
	return best
}

func diversityScore(el *document.Element) int {
	score := len(el.Children) + len(el.Attrs)
	if el.Text != "" {
		score++
	}
	return score
}

func (s *selector) fillByStrategy() {
	switch s.opts.Strategy {
	case StrategyPreserveAllTypes:
		// Handled by the preserve pass; nothing further to fill.
	case StrategyBalanced:
		s.fillBalanced()
	case StrategyRandom:
		s.fillRandom()
	case StrategyFirst:
		s.fillFirst()
	}
}

func (s *selector) fillBalanced() {
	tags := s.nonRootTags()
	if len(tags) == 0 {
		return
	}
	remaining := s.opts.MaxElements - len(s.selection.Elements)
	perTag := remaining / len(tags)
	if perTag < 1 {
		perTag = 1
	}
	for _, tag := range tags {
		took := 0
		for _, ex := range s.profile.Types[tag].Examples {
			if s.full() || took >= perTag || !s.spend() {
				break
			}
			if s.eligible(ex) {
				s.add(ex)
				took++
			}
		}
		if s.full() {
			return
		}
	}
}

func (s *selector) fillRandom() {
	var pool []*document.Element
	for _, tag := range s.nonRootTags() {
		pool = append(pool, s.profile.Types[tag].Examples...)
	}
	rng := rand.New(rand.NewSource(s.opts.Seed))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for _, ex := range pool {
		if s.full() || !s.spend() {
			return
		}
		if s.eligible(ex) {
			s.add(ex)
		}
	}
}

func (s *selector) fillFirst() {
	for _, tag := range s.nonRootTags() {
		for _, ex := range s.profile.Types[tag].Examples {
			if s.full() || !s.spend() {
				return
			}
			if s.eligible(ex) {
				s.add(ex)
			}
		}
	}
}

func (s *selector) eligible(ex *document.Element) bool {
	if s.taken[ex] {
		return false
	}
	if id := ex.Attr(s.opts.IdentityAttr); id != "" && s.seenIDs[id] {
		return false
	}
	return true
}

func (s *selector) nonRootTags() []string {
	var tags []string
	for _, tag := range s.profile.TagsInOrder() {
		if !s.isRootTag(tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (s *selector) isRootTag(tag string) bool {
	for _, root := range s.profile.RootTags {
		if root == tag {
			return true
		}
	}
	return false
}
