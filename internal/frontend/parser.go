package frontend

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"bennypowers.dev/tplcache/internal/position"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// CallSite is one tagged template expression found in JS source
type CallSite struct {
	// Tag is the source text of the tag expression (e.g. "html", "String.raw")
	Tag string
	// Raw holds the literal text between the template's delimiters, with line
	// terminators normalized. There is always one more part than substitutions.
	Raw []string
	// Line is the 0-indexed line of the call expression
	Line uint
	// Column is the 0-indexed column of the call expression in UTF-16 code units
	Column uint
	// offset orders call sites by position in the source
	offset uint
}

// Parser finds tagged template call sites in JS source
type Parser struct {
	parser        *sitter.Parser
	callSiteQuery *sitter.Query
}

var jsLang = sitter.NewLanguage(tree_sitter_javascript.Language())

// parserPool is a pool of reusable JS parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(jsLang); err != nil {
			panic(fmt.Sprintf("failed to set JS language: %v", err))
		}

		// Any call whose arguments are a template string is a tagged template:
		// tag`x`, a.b`x`, f()`x`, tag`x``y`.
		callSiteQuery, qerr := sitter.NewQuery(jsLang, `
			(call_expression
				function: (_) @tag
				arguments: (template_string) @template) @call
		`)
		if qerr != nil {
			panic(fmt.Sprintf("failed to compile call site query: %v", qerr))
		}

		return &Parser{
			parser:        parser,
			callSiteQuery: callSiteQuery,
		}
	},
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Close closes the parser and releases its resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
	if p.callSiteQuery != nil {
		p.callSiteQuery.Close()
	}
}

// ParseCallSites returns every tagged template call site in source, in source
// order. It fails with ErrSyntax if the source does not parse cleanly.
func (p *Parser) ParseCallSites(source string) ([]CallSite, error) {
	sourceBytes := []byte(source)
	tree := p.parser.Parse(sourceBytes, nil)
	if tree == nil {
		return nil, ErrSyntax
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		pos := firstError(root)
		return nil, NewSyntaxError(pos.Row, pos.Column)
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	var sites []CallSite
	names := p.callSiteQuery.CaptureNames()
	matches := cursor.Matches(p.callSiteQuery, root, sourceBytes)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var site CallSite
		var templateNode sitter.Node
		foundCall, foundTemplate := false, false

		for _, capture := range match.Captures {
			switch names[capture.Index] {
			case "tag":
				site.Tag = string(sourceBytes[capture.Node.StartByte():capture.Node.EndByte()])
			case "template":
				templateNode = capture.Node
				foundTemplate = true
			case "call":
				site.Line = capture.Node.StartPosition().Row
				site.Column = uint(position.UTF16Column(source, int(capture.Node.StartByte()))) //nolint:gosec // G115: bounded by source length
				foundCall = true
			}
		}
		if !foundCall || !foundTemplate {
			continue
		}

		site.offset = templateNode.StartByte()
		site.Raw = rawParts(&templateNode, sourceBytes)
		sites = append(sites, site)
	}

	slices.SortFunc(sites, func(a, b CallSite) int {
		return cmp.Compare(a.offset, b.offset)
	})
	return sites, nil
}

// rawParts slices the literal text of a template_string node at each
// ${...} substitution. The text keeps escape sequences as written.
func rawParts(templateNode *sitter.Node, sourceBytes []byte) []string {
	// Skip the opening and closing backticks.
	start := templateNode.StartByte() + 1
	end := templateNode.EndByte() - 1

	var parts []string
	for i := uint(0); i < templateNode.ChildCount(); i++ {
		child := templateNode.Child(i)
		if child.Kind() != "template_substitution" {
			continue
		}
		parts = append(parts, normalizeLineTerminators(string(sourceBytes[start:child.StartByte()])))
		start = child.EndByte()
	}
	parts = append(parts, normalizeLineTerminators(string(sourceBytes[start:end])))
	return parts
}

// normalizeLineTerminators maps CR LF and lone CR to LF, as both the raw and
// cooked values of a template literal do
func normalizeLineTerminators(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// firstError finds the position of the first ERROR or MISSING node under n
func firstError(n *sitter.Node) sitter.Point {
	if n.IsError() || n.IsMissing() {
		return n.StartPosition()
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstError(child)
		}
	}
	return n.StartPosition()
}
