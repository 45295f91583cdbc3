package analyzer

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/simonhull/firebird-suite/wren/internal/document"
)

// Defaults for the safety ceilings. These bound worst-case cost on
// pathological input; hitting one is normal early termination, not an
// error (the profile is flagged Partial).
const (
	DefaultMaxDepth    = 100
	DefaultMaxElements = 1_000_000
	DefaultExampleCap  = 5

	// exampleNodeCap bounds the subtree retained for any single cached
	// example, so examples stay small no matter how large the element
	// they were sampled from.
	exampleNodeCap = 50

	// textCap bounds accumulated character data per element.
	textCap = 4096
)

// Options configures an analysis pass.
type Options struct {
	MaxDepth    int
	MaxElements int
	ExampleCap  int

	// TypeCaps overrides the example cap for specific tags.
	TypeCaps map[string]int
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxElements <= 0 {
		o.MaxElements = DefaultMaxElements
	}
	if o.ExampleCap <= 0 {
		o.ExampleCap = DefaultExampleCap
	}
	return o
}

// Analyzer produces structural profiles from document text.
type Analyzer struct {
	opts Options
}

// New creates an analyzer, applying defaults for unset options.
func New(opts Options) *Analyzer {
	return &Analyzer{opts: opts.withDefaults()}
}

// Analyze builds a profile from document text. It never fails: malformed
// input degrades to a lenient tag scan, and safety ceilings stop traversal
// early. Both cases mark the profile Partial instead of returning an error.
func (a *Analyzer) Analyze(text string) *Profile {
	p := newProfile()

	s := &analysisState{
		analyzer:    a,
		profile:     p,
		uriToPrefix: make(map[string]string),
	}
	parseFailed := s.run(text)

	if parseFailed || len(p.RootTags) == 0 {
		// Strict parsing stopped short of the document structure. Top up
		// the vocabulary with a best-effort scan so the profile is never
		// empty just because the input was malformed. Ceiling-triggered
		// halts skip this: the ceiling asked for less work, not more.
		mergeLenient(p, lenientScan(text, a.opts))
	}

	return p
}

func (a *Analyzer) capFor(tag string) int {
	if c, ok := a.opts.TypeCaps[tag]; ok && c > 0 {
		return c
	}
	return a.opts.ExampleCap
}

type analysisState struct {
	analyzer    *Analyzer
	profile     *Profile
	stack       []*document.Element
	uriToPrefix map[string]string
}

func (s *analysisState) run(text string) (parseFailed bool) {
	dec := xml.NewDecoder(strings.NewReader(text))
	p := s.profile
	opts := s.analyzer.opts

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.Partial = true
			p.PartialReason = "strict parse failed: " + err.Error()
			parseFailed = true
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth := len(s.stack)
			if depth >= opts.MaxDepth {
				p.Partial = true
				p.PartialReason = "depth safety ceiling reached"
				s.drainStack()
				return false
			}
			if p.TotalElements >= opts.MaxElements {
				p.Partial = true
				p.PartialReason = "element safety ceiling reached"
				s.drainStack()
				return false
			}
			s.open(t, depth)
		case xml.EndElement:
			s.close()
		case xml.CharData:
			s.text(string(t))
		}
	}

	// Anything still open (truncated document) is captured as-is.
	s.drainStack()
	return parseFailed
}

func (s *analysisState) open(t xml.StartElement, depth int) {
	p := s.profile

	// Namespace declarations scope over the element itself, so record
	// them before qualifying its name.
	for _, attr := range t.Attr {
		if prefix, uri, ok := xmlnsDecl(attr); ok {
			if _, seen := p.Namespaces[prefix]; !seen {
				p.Namespaces[prefix] = uri
			}
			if _, seen := s.uriToPrefix[uri]; !seen {
				s.uriToPrefix[uri] = prefix
			}
		}
	}

	tag := s.qualify(t.Name)
	el := &document.Element{Tag: tag, Depth: depth}

	ti := p.typeInfo(tag)
	ti.Count++
	if depth > ti.MaxDepth {
		ti.MaxDepth = depth
	}
	p.TotalElements++
	if depth > p.MaxDepth {
		p.MaxDepth = depth
	}

	for _, attr := range t.Attr {
		if _, _, ok := xmlnsDecl(attr); ok {
			continue
		}
		name := s.qualifyAttr(attr.Name)
		if el.Attrs == nil {
			el.Attrs = make(map[string]string)
		}
		el.Attrs[name] = attr.Value
		ti.recordAttr(name)
	}

	if depth == 0 {
		p.RootTags = appendUnique(p.RootTags, tag)
	} else {
		parent := s.stack[len(s.stack)-1]
		p.typeInfo(parent.Tag).recordChild(tag)
		if len(parent.Children) < exampleNodeCap {
			parent.Children = append(parent.Children, el)
		}
	}

	s.stack = append(s.stack, el)
}

func (s *analysisState) close() {
	if len(s.stack) == 0 {
		return
	}
	el := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.capture(el)
}

func (s *analysisState) text(data string) {
	if len(s.stack) == 0 {
		return
	}
	el := s.stack[len(s.stack)-1]
	if len(el.Text) < textCap {
		el.Text += data
		if len(el.Text) > textCap {
			el.Text = el.Text[:textCap]
		}
	}
}

// capture records a finished element as a cached example if its type still
// has room, pruning the retained subtree so no example can pin large parts
// of the document in memory.
func (s *analysisState) capture(el *document.Element) {
	el.Text = strings.TrimSpace(el.Text)

	if el.Size() > exampleNodeCap {
		pruned := el.CloneBounded(exampleNodeCap)
		*el = *pruned
	}

	ti := s.profile.typeInfo(el.Tag)
	if el.Text != "" {
		ti.HasText = true
	}
	if len(ti.Examples) < s.analyzer.capFor(el.Tag) {
		ti.Examples = append(ti.Examples, el.Clone())
	}
}

// drainStack captures every still-open element, innermost first, so a
// truncated parse still yields usable examples.
func (s *analysisState) drainStack() {
	for len(s.stack) > 0 {
		s.close()
	}
}

// qualify renders an element name back in its prefixed source form.
// encoding/xml resolves declared prefixes to URIs; the xmlns declarations
// collected so far are used to reverse that.
func (s *analysisState) qualify(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if prefix, ok := s.uriToPrefix[name.Space]; ok {
		if prefix == "" {
			return name.Local // default namespace, unprefixed in source
		}
		return prefix + ":" + name.Local
	}
	// Undeclared prefix: the decoder leaves it verbatim in Space.
	return name.Space + ":" + name.Local
}

func (s *analysisState) qualifyAttr(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if prefix, ok := s.uriToPrefix[name.Space]; ok && prefix != "" {
		return prefix + ":" + name.Local
	}
	return name.Space + ":" + name.Local
}

// xmlnsDecl reports whether attr declares a namespace, returning the
// declared prefix ("" for the default namespace) and URI.
func xmlnsDecl(attr xml.Attr) (prefix, uri string, ok bool) {
	if attr.Name.Space == "xmlns" {
		return attr.Name.Local, attr.Value, true
	}
	if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
		return "", attr.Value, true
	}
	return "", "", false
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
