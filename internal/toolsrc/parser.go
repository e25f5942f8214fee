// Package toolsrc implements the Tool Source Parser (C2): it turns the raw
// text an author submits to add_mcp_tool into an entry symbol, a declarative
// descriptor, a dependency list, and a sandbox-runnable body — without ever
// evaluating the body itself (spec.md §4.1, §9 "decorator-free descriptor
// recovery").
package toolsrc

import (
	"fmt"
	"regexp"
	"strings"
)

var requirementsBlockRE = regexp.MustCompile(`(?s)<requirements>(.*?)</requirements>`)

// decoratorStartRE locates "@mcp.tool(" ... the matching close paren is found by
// balanced scanning, not by this regex alone (decorator arguments may nest
// parens, e.g. inside a default expression), so this only anchors the start.
var decoratorStartRE = regexp.MustCompile(`@mcp\.tool\s*\(`)
var defLineRE = regexp.MustCompile(`^\s*def\s+(\w+)\s*\(`)

// Parse implements the C2 contract: (entry_symbol, descriptor, dependencies,
// stripped_body) or ErrParseError.
func Parse(source string) (*Parsed, error) {
	deps, err := parseRequirements(source)
	if err != nil {
		return nil, err
	}

	loc := decoratorStartRE.FindStringIndex(source)
	if loc == nil {
		return nil, fmt.Errorf("%w: no @mcp.tool decorator found", ErrParseError)
	}
	argsStart := loc[1] // just after the opening '('
	argsEnd, err := matchParen(source, argsStart-1)
	if err != nil {
		return nil, fmt.Errorf("%w: unbalanced decorator arguments: %v", ErrParseError, err)
	}
	decoratorArgs := source[argsStart:argsEnd]

	rest := source[argsEnd+1:]
	defMatch := defLineRE.FindStringSubmatchIndex(skipLeadingBlank(rest))
	skip := len(rest) - len(skipLeadingBlank(rest))
	if defMatch == nil {
		return nil, fmt.Errorf("%w: no function definition follows the decorator", ErrParseError)
	}
	entrySymbol := rest[skip+defMatch[2] : skip+defMatch[3]]

	sigParenOpen := skip + defMatch[1] - 1 // index of the '(' the regex consumed
	sigParenClose, err := matchParen(rest, sigParenOpen)
	if err != nil {
		return nil, fmt.Errorf("%w: unbalanced parameter list: %v", ErrParseError, err)
	}
	paramsText := rest[sigParenOpen+1 : sigParenClose]

	afterSig := rest[sigParenClose+1:]
	colonIdx := strings.Index(afterSig, ":")
	if colonIdx < 0 {
		return nil, fmt.Errorf("%w: function definition missing ':'", ErrParseError)
	}
	body := afterSig[colonIdx+1:]

	description := extractDescription(decoratorArgs)
	annotations := extractAnnotationDescriptions(decoratorArgs)

	params, err := parseParams(paramsText, annotations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}

	var sig strings.Builder
	sig.WriteString("def ")
	sig.WriteString(entrySymbol)
	sig.WriteString("(")
	for i, p := range params {
		if i > 0 {
			sig.WriteString(", ")
		}
		sig.WriteString(p.Name)
		if !p.Required {
			sig.WriteString("=")
			sig.WriteString(p.StarlarkDefault)
		}
	}
	sig.WriteString("):")
	strippedBody := sig.String() + body

	return &Parsed{
		EntrySymbol:  entrySymbol,
		Description:  description,
		Params:       params,
		Dependencies: deps,
		StrippedBody: strippedBody,
	}, nil
}

func parseRequirements(source string) ([]string, error) {
	m := requirementsBlockRE.FindStringSubmatch(source)
	if m == nil {
		if strings.Contains(source, "<requirements>") || strings.Contains(source, "</requirements>") {
			return nil, fmt.Errorf("%w: unterminated <requirements> block", ErrParseError)
		}
		return nil, nil
	}
	var deps []string
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			deps = append(deps, line)
		}
	}
	return deps, nil
}

func skipLeadingBlank(s string) string {
	return strings.TrimLeft(s, " \t\r\n")
}

// matchParen returns the index in s of the ')' matching the '(' at index
// openIdx, accounting for nested (), [] and "...'...' string literals.
func matchParen(s string, openIdx int) (int, error) {
	depth := 0
	var inString byte
	for i := openIdx; i < len(s); i++ {
		c := s[i]
		if inString != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inString {
				inString = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inString = c
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 && c == ')' {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("no matching close paren for index %d", openIdx)
}

var descriptionSingleRE = regexp.MustCompile(`description\s*=\s*'((?:[^'\\]|\\.)*)'`)
var descriptionDoubleRE = regexp.MustCompile(`description\s*=\s*"((?:[^"\\]|\\.)*)"`)

func extractDescription(decoratorArgs string) string {
	if m := descriptionSingleRE.FindStringSubmatch(decoratorArgs); m != nil {
		return m[1]
	}
	if m := descriptionDoubleRE.FindStringSubmatch(decoratorArgs); m != nil {
		return m[1]
	}
	return ""
}

var annotationEntryRE = regexp.MustCompile(`"(\w+)"\s*:\s*\{\s*"description"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// extractAnnotationDescriptions recovers the annotations.parameters mapping
// from the decorator's arguments (spec.md §4.1 descriptor extraction). Only
// simple string-literal object entries are understood; anything more exotic
// (spec.md §9 "richer expressions are rejected") is simply not matched.
func extractAnnotationDescriptions(decoratorArgs string) map[string]string {
	idx := strings.Index(decoratorArgs, "annotations")
	if idx < 0 {
		return nil
	}
	block := decoratorArgs[idx:]
	out := make(map[string]string)
	for _, m := range annotationEntryRE.FindAllStringSubmatch(block, -1) {
		out[m[1]] = m[2]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
