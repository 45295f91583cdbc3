// Package validate is the local stand-in for the external validation
// collaborator: a well-formedness check over the token stream, bounded by
// a timeout so a pathological document can never block the pipeline.
package validate

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

// Result mirrors the collaborator contract: validity plus human-readable
// errors and warnings.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Check runs a full well-formedness pass over the document text.
func Check(text string) Result {
	dec := xml.NewDecoder(strings.NewReader(text))
	sawElement := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{Valid: false, Errors: []string{err.Error()}}
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
	if !sawElement {
		return Result{Valid: false, Errors: []string{"document contains no elements"}}
	}
	return Result{Valid: true}
}

// CheckWithTimeout runs Check under a deadline. On timeout it falls back
// to a cheap prefix/suffix heuristic instead of blocking: the result is
// best-effort and carries a warning saying so.
func CheckWithTimeout(ctx context.Context, text string, timeout time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() { done <- Check(text) }()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		res := heuristicCheck(text)
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("validation timed out after %s; result is a best-effort heuristic", timeout))
		return res
	}
}

// heuristicCheck is the timeout fallback: the document looks plausible if
// it starts with markup and its last closing tag matches its first opening
// tag. Cheap, and wrong only in ways a timed-out full check would also
// leave unreported.
func heuristicCheck(text string) Result {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "<") {
		return Result{Valid: false, Errors: []string{"document does not start with markup"}}
	}
	first := firstTagName(trimmed)
	if first == "" {
		return Result{Valid: false, Errors: []string{"no opening tag found"}}
	}
	if !strings.Contains(trimmed, "</"+first+">") {
		return Result{Valid: false, Errors: []string{fmt.Sprintf("no closing tag for root element %q", first)}}
	}
	return Result{Valid: true}
}

func firstTagName(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '<' {
			continue
		}
		rest := text[i+1:]
		if strings.HasPrefix(rest, "?") || strings.HasPrefix(rest, "!") {
			continue
		}
		end := strings.IndexAny(rest, " \t\r\n>/")
		if end <= 0 {
			return ""
		}
		return rest[:end]
	}
	return ""
}
