package sampler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/simonhull/firebird-suite/wren/internal/analyzer"
	"github.com/simonhull/firebird-suite/wren/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileOf(t *testing.T, doc string) *analyzer.Profile {
	t.Helper()
	return analyzer.New(analyzer.Options{}).Analyze(doc)
}

func tagsOf(sel *Selection) map[string]int {
	tags := make(map[string]int)
	for _, el := range sel.Elements {
		tags[el.Tag]++
	}
	return tags
}

const fiveTags = `<Root>
	<A id="a1" x="1"/><A id="a2"/>
	<B id="b1"/>
	<C id="c1"><Nested/></C>
	<D id="d1"/>
	<E id="e1"/>
</Root>`

func TestSelectRejectsInvalidBudget(t *testing.T) {
	p := profileOf(t, fiveTags)

	_, err := Select(p, Options{MaxElements: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	_, err = Select(p, Options{MaxElements: -5})
	require.Error(t, err)
}

func TestSelectRejectsEmptyProfile(t *testing.T) {
	empty := analyzer.New(analyzer.Options{}).Analyze("no markup here")
	_, err := Select(empty, Options{MaxElements: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")
}

func TestSelectionNeverExceedsBudget(t *testing.T) {
	p := profileOf(t, fiveTags)

	for _, strategy := range []Strategy{StrategyPreserveAllTypes, StrategyBalanced, StrategyRandom, StrategyFirst} {
		for _, max := range []int{1, 2, 3, 10, 100} {
			sel, err := Select(p, Options{
				MaxElements:           max,
				Strategy:              strategy,
				PreserveAttributes:    true,
				PreserveRelationships: true,
			})
			require.NoError(t, err, "strategy=%s max=%d", strategy, max)
			assert.LessOrEqual(t, len(sel.Elements), max, "strategy=%s max=%d", strategy, max)
		}
	}
}

func TestPreserveAllTypesCoversEveryTag(t *testing.T) {
	p := profileOf(t, fiveTags)

	sel, err := Select(p, Options{
		MaxElements:        20,
		Strategy:           StrategyPreserveAllTypes,
		PreserveAttributes: true,
	})
	require.NoError(t, err)

	tags := tagsOf(sel)
	// Every non-root tag is represented at least once.
	for _, tag := range []string{"A", "B", "C", "D", "E", "Nested"} {
		assert.Contains(t, tags, tag)
	}
	assert.NotContains(t, tags, "Root")
}

func TestPreserveAllTypesTruncatedBudget(t *testing.T) {
	// Scenario: 5+ distinct tags, budget of 3: exactly 3 tags represented,
	// chosen deterministically in discovery order.
	p := profileOf(t, fiveTags)

	first, err := Select(p, Options{MaxElements: 3, Strategy: StrategyPreserveAllTypes, PreserveAttributes: true})
	require.NoError(t, err)
	require.Len(t, first.Elements, 3)

	second, err := Select(p, Options{MaxElements: 3, Strategy: StrategyPreserveAllTypes, PreserveAttributes: true})
	require.NoError(t, err)

	for i := range first.Elements {
		assert.Equal(t, first.Elements[i].Tag, second.Elements[i].Tag)
		assert.Equal(t, first.Elements[i].Attr("id"), second.Elements[i].Attr("id"))
	}
}

func TestDiversityScorePrefersRicherExamples(t *testing.T) {
	// a2 has more attributes than a1; a3 has a child on top of that.
	doc := `<Root>
		<A id="a1"/>
		<A id="a2" x="1" y="2"/>
		<A id="a3" x="1" y="2"><Sub/></A>
	</Root>`
	p := profileOf(t, doc)

	sel, err := Select(p, Options{MaxElements: 1, Strategy: StrategyPreserveAllTypes, PreserveAttributes: true})
	require.NoError(t, err)
	require.Len(t, sel.Elements, 1)
	assert.Equal(t, "a3", sel.Elements[0].Attr("id"))
}

func TestDiversityTieBreakIsLowestIndex(t *testing.T) {
	doc := `<Root><A id="a1"/><A id="a2"/><A id="a3"/></Root>`
	p := profileOf(t, doc)

	sel, err := Select(p, Options{MaxElements: 1, Strategy: StrategyPreserveAllTypes, PreserveAttributes: true})
	require.NoError(t, err)
	require.Len(t, sel.Elements, 1)
	assert.Equal(t, "a1", sel.Elements[0].Attr("id"))
}

func TestFirstStrategyIsIdempotent(t *testing.T) {
	p := profileOf(t, fiveTags)
	opts := Options{MaxElements: 4, Strategy: StrategyFirst, PreserveAttributes: true, PreserveRelationships: true}

	a, err := Select(p, opts)
	require.NoError(t, err)
	b, err := Select(p, opts)
	require.NoError(t, err)

	require.Equal(t, len(a.Elements), len(b.Elements))
	for i := range a.Elements {
		assert.Equal(t, a.Elements[i].Tag, b.Elements[i].Tag)
		assert.Equal(t, a.Elements[i].Attr("id"), b.Elements[i].Attr("id"))
	}
}

func TestRandomStrategyIsSeedDeterministic(t *testing.T) {
	p := profileOf(t, fiveTags)
	opts := Options{MaxElements: 4, Strategy: StrategyRandom, Seed: 42, PreserveAttributes: true}

	a, err := Select(p, opts)
	require.NoError(t, err)
	b, err := Select(p, opts)
	require.NoError(t, err)

	require.Equal(t, len(a.Elements), len(b.Elements))
	for i := range a.Elements {
		assert.Equal(t, a.Elements[i].Tag, b.Elements[i].Tag)
	}
}

func TestBalancedStrategySpreadsBudget(t *testing.T) {
	var b strings.Builder
	b.WriteString("<Root>")
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, `<A id="a%d"/><B id="b%d"/>`, i, i)
	}
	b.WriteString("</Root>")
	p := profileOf(t, b.String())

	sel, err := Select(p, Options{MaxElements: 4, Strategy: StrategyBalanced, PreserveAttributes: true})
	require.NoError(t, err)

	tags := tagsOf(sel)
	assert.Equal(t, 2, tags["A"])
	assert.Equal(t, 2, tags["B"])
}

func TestSelectionDepthOrdered(t *testing.T) {
	doc := `<Root><Outer id="o1"><Mid id="m1"><Leaf id="l1"/></Mid></Outer><Flat id="f1"/></Root>`
	p := profileOf(t, doc)

	sel, err := Select(p, Options{MaxElements: 10, Strategy: StrategyPreserveAllTypes, PreserveAttributes: true})
	require.NoError(t, err)
	require.NotEmpty(t, sel.Elements)

	for i := 1; i < len(sel.Elements); i++ {
		assert.GreaterOrEqual(t, sel.Elements[i].Depth, sel.Elements[i-1].Depth)
	}
}

func TestScenarioReferencedElementIncluded(t *testing.T) {
	// One-element budget, first strategy, no preserve-all-types: the
	// element referenced by B must still be present, and the overall
	// ceiling still holds.
	p := profileOf(t, `<Root><A id="1"/><B ref="1"/></Root>`)

	sel, err := Select(p, Options{
		MaxElements:           1,
		Strategy:              StrategyFirst,
		PreserveAttributes:    true,
		PreserveRelationships: true,
	})
	require.NoError(t, err)
	require.Len(t, sel.Elements, 1)
	assert.Equal(t, "A", sel.Elements[0].Tag)
	assert.Empty(t, sel.UnresolvedRefs)
}

func TestReferenceClosurePullsInTargets(t *testing.T) {
	// The preserve pass picks sy1 as the Synset representative (richest
	// example), so sy2 and sy3 enter the selection only through the
	// reference resolver: sy2 directly from s1, sy3 transitively via sy2.
	doc := `<Root>
		<Sense id="s1" synset="sy2"/>
		<Synset id="sy1"><Def>first</Def></Synset>
		<Synset id="sy2" relatedTo="sy3"/>
		<Synset id="sy3"/>
	</Root>`
	p := profileOf(t, doc)

	sel, err := Select(p, Options{
		MaxElements:           10,
		Strategy:              StrategyPreserveAllTypes,
		PreserveAttributes:    true,
		PreserveRelationships: true,
	})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, el := range sel.Elements {
		ids[el.Attr("id")] = true
	}
	assert.True(t, ids["sy1"])
	assert.True(t, ids["sy2"])
	assert.True(t, ids["sy3"])
	assert.Empty(t, sel.UnresolvedRefs)
}

func TestUnresolvedReferencesAreReported(t *testing.T) {
	p := profileOf(t, `<Root><Sense id="s1" synset="missing-1"/><Sense id="s2" synset="missing-2"/></Root>`)

	sel, err := Select(p, Options{
		MaxElements:           10,
		Strategy:              StrategyFirst,
		PreserveAttributes:    true,
		PreserveRelationships: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"missing-1", "missing-2"}, sel.UnresolvedRefs)
}

func TestCompletionPolicySynthesizesRequiredChildren(t *testing.T) {
	p := profileOf(t, `<Root><Entry id="e1"/></Root>`)

	sel, err := Select(p, Options{
		MaxElements:        5,
		Strategy:           StrategyFirst,
		PreserveAttributes: true,
		RequiredChildren:   map[string][]string{"Entry": {"Lemma"}},
	})
	require.NoError(t, err)
	require.Len(t, sel.Elements, 1)

	entry := sel.Elements[0]
	require.True(t, entry.HasChild("Lemma"))
	assert.Equal(t, 1, sel.Synthesized)

	var lemma *document.Element
	for _, c := range entry.Children {
		if c.Tag == "Lemma" {
			lemma = c
		}
	}
	require.NotNil(t, lemma)
	assert.Equal(t, "true", lemma.Attr(PlaceholderAttr))
	assert.Equal(t, entry.Depth+1, lemma.Depth)
}

func TestCompletionPolicySkipsPresentChildren(t *testing.T) {
	p := profileOf(t, `<Root><Entry id="e1"><Lemma writtenForm="cat"/></Entry></Root>`)

	sel, err := Select(p, Options{
		MaxElements:        5,
		Strategy:           StrategyPreserveAllTypes,
		PreserveAttributes: true,
		RequiredChildren:   map[string][]string{"Entry": {"Lemma"}},
	})
	require.NoError(t, err)

	for _, el := range sel.Elements {
		if el.Tag == "Entry" {
			count := 0
			for _, c := range el.Children {
				if c.Tag == "Lemma" {
					count++
				}
			}
			assert.Equal(t, 1, count)
		}
	}
	assert.Equal(t, 0, sel.Synthesized)
}

func TestSelectionNeverAliasesProfileExamples(t *testing.T) {
	p := profileOf(t, `<Root><Entry id="e1"/></Root>`)

	_, err := Select(p, Options{
		MaxElements:        5,
		Strategy:           StrategyFirst,
		PreserveAttributes: true,
		RequiredChildren:   map[string][]string{"Entry": {"Lemma"}},
	})
	require.NoError(t, err)

	// Completion added a Lemma to the selected clone; the profile's
	// cached example must be untouched.
	example := p.Types["Entry"].Examples[0]
	assert.Empty(t, example.Children)
}

func TestStripAttributesKeepsIdentityAndRelationships(t *testing.T) {
	p := profileOf(t, `<Root><Sense id="s1" synset="sy1" note="drop me"/><Synset id="sy1"/></Root>`)

	sel, err := Select(p, Options{
		MaxElements:           5,
		Strategy:              StrategyFirst,
		PreserveAttributes:    false,
		PreserveRelationships: true,
	})
	require.NoError(t, err)

	for _, el := range sel.Elements {
		if el.Tag == "Sense" {
			assert.Equal(t, "s1", el.Attr("id"))
			assert.Equal(t, "sy1", el.Attr("synset"))
			assert.Equal(t, "", el.Attr("note"))
		}
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name    string
		want    Strategy
		wantErr bool
	}{
		{"preserve-all-types", StrategyPreserveAllTypes, false},
		{"balanced", StrategyBalanced, false},
		{"random", StrategyRandom, false},
		{"first", StrategyFirst, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrategy(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, got.String())
		})
	}
}
