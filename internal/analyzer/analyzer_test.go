package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lexicon = `<?xml version="1.0"?>
<Lexicon xmlns:dc="http://purl.org/dc/elements/1.1/">
  <Entry id="e1" pos="n">
    <Lemma writtenForm="cat"/>
    <Sense id="s1" synset="sy1"/>
  </Entry>
  <Entry id="e2" pos="v">
    <Lemma writtenForm="purr"/>
  </Entry>
  <Synset id="sy1">
    <Gloss>a small domesticated feline</Gloss>
  </Synset>
</Lexicon>`

func TestAnalyzeBasicProfile(t *testing.T) {
	p := New(Options{}).Analyze(lexicon)

	assert.False(t, p.Partial)
	assert.Equal(t, 8, p.TotalElements)
	assert.Equal(t, 2, p.MaxDepth)
	assert.Equal(t, []string{"Lexicon"}, p.RootTags)

	entry := p.Types["Entry"]
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Count)
	assert.Equal(t, []string{"id", "pos"}, entry.AttributeNames())
	assert.Equal(t, []string{"Lemma", "Sense"}, entry.ChildTagNames())
	assert.Equal(t, 1, entry.MaxDepth)
	require.Len(t, entry.Examples, 2)
	assert.Equal(t, "e1", entry.Examples[0].Attr("id"))

	gloss := p.Types["Gloss"]
	require.NotNil(t, gloss)
	assert.True(t, gloss.HasText)

	lexiconType := p.Types["Lexicon"]
	require.NotNil(t, lexiconType)
	assert.Equal(t, []string{"Entry", "Synset"}, lexiconType.ChildTagNames())
}

func TestAnalyzeDepthInvariant(t *testing.T) {
	p := New(Options{}).Analyze(lexicon)

	// depth(child) = depth(parent) + 1 along any retained path.
	for _, ti := range p.Types {
		for _, ex := range ti.Examples {
			for _, c := range ex.Children {
				assert.Equal(t, ex.Depth+1, c.Depth, "child %s of %s", c.Tag, ex.Tag)
			}
		}
	}
}

func TestAnalyzeNamespaces(t *testing.T) {
	doc := `<lmf:Lexicon xmlns:lmf="http://example.com/lmf" xmlns="http://example.com/default">
		<lmf:Entry lmf:id="e1"/>
		<Plain/>
	</lmf:Lexicon>`
	p := New(Options{}).Analyze(doc)

	assert.Equal(t, "http://example.com/lmf", p.Namespaces["lmf"])
	assert.Equal(t, "http://example.com/default", p.Namespaces[""])
	assert.Equal(t, []string{"lmf:Lexicon"}, p.RootTags)
	assert.Contains(t, p.Types, "lmf:Entry")
	// Default-namespace elements stay unprefixed, as in the source.
	assert.Contains(t, p.Types, "Plain")

	entry := p.Types["lmf:Entry"]
	assert.Equal(t, []string{"lmf:id"}, entry.AttributeNames())
}

func TestAnalyzeExampleCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<Root>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<Item id="i%d"/>`, i)
	}
	b.WriteString("</Root>")

	p := New(Options{}).Analyze(b.String())
	item := p.Types["Item"]
	require.NotNil(t, item)
	assert.Equal(t, 20, item.Count)
	assert.Len(t, item.Examples, DefaultExampleCap)
}

func TestAnalyzeTypeCapOverride(t *testing.T) {
	var b strings.Builder
	b.WriteString("<Root>")
	for i := 0; i < 20; i++ {
		b.WriteString("<Item/>")
	}
	b.WriteString("</Root>")

	p := New(Options{TypeCaps: map[string]int{"Item": 2}}).Analyze(b.String())
	assert.Len(t, p.Types["Item"].Examples, 2)
	assert.Equal(t, 20, p.Types["Item"].Count)
}

func TestAnalyzeElementCeiling(t *testing.T) {
	var b strings.Builder
	b.WriteString("<Root>")
	for i := 0; i < 100; i++ {
		b.WriteString("<Item/>")
	}
	b.WriteString("</Root>")

	p := New(Options{MaxElements: 10}).Analyze(b.String())
	assert.True(t, p.Partial)
	assert.Contains(t, p.PartialReason, "element safety ceiling")
	assert.Equal(t, 10, p.TotalElements)
}

func TestAnalyzeDepthCeiling(t *testing.T) {
	depth := 30
	doc := strings.Repeat("<N>", depth) + strings.Repeat("</N>", depth)

	p := New(Options{MaxDepth: 5}).Analyze(doc)
	assert.True(t, p.Partial)
	assert.Contains(t, p.PartialReason, "depth safety ceiling")
	assert.Less(t, p.MaxDepth, 5)
}

func TestAnalyzeMalformedNeverFails(t *testing.T) {
	// Unterminated element: strict parsing fails partway through.
	doc := `<Root><Item id="1"><Unclosed></Root>`

	p := New(Options{}).Analyze(doc)
	require.NotNil(t, p)
	assert.True(t, p.Partial)
	assert.Greater(t, p.TotalElements, 0)
	assert.Contains(t, p.Types, "Item")
}

func TestAnalyzeGarbageInput(t *testing.T) {
	p := New(Options{}).Analyze("this is not xml at all")
	require.NotNil(t, p)
	assert.True(t, p.Partial)
	assert.Equal(t, 0, p.TotalElements)
	assert.Empty(t, p.RootTags)
}

func TestTopElementsAndAttributes(t *testing.T) {
	p := New(Options{}).Analyze(lexicon)

	top := p.TopElements(2)
	require.Len(t, top, 2)
	// Entry and Lemma both occur twice; ties break by name.
	assert.Equal(t, "Entry", top[0].Name)
	assert.Equal(t, 2, top[0].Count)
	assert.Equal(t, "Lemma", top[1].Name)

	attrs := p.TopAttributes(1)
	require.Len(t, attrs, 1)
	assert.Equal(t, "id", attrs[0].Name)
	assert.Equal(t, 4, attrs[0].Count)
}
