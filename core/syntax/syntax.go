// Package syntax parses JavaScript and TypeScript sources with tree-sitter and
// reports the structural facts the metric extractor and duplication detector need.
package syntax

import (
	"context"
	"fmt"
	"path"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language selects the grammar used for a file.
type Language string

// All grammars supported.
const (
	JavaScript Language = "javascript" // default, also covers JSX
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
)

// branchKinds are the node kinds counted as branch constructs.
// for_in_statement covers both for-in and for-of loops.
var branchKinds = map[string]struct{}{
	"if_statement":     {},
	"for_statement":    {},
	"for_in_statement": {},
	"while_statement":  {},
	"do_statement":     {},
	"switch_statement": {},
}

// functionKinds are the named node kinds counted as function definitions.
var functionKinds = map[string]struct{}{
	"function_declaration":           {},
	"generator_function_declaration": {},
	"function_expression":            {},
	"function":                       {},
	"generator_function":             {},
	"arrow_function":                 {},
	"method_definition":              {},
}

const commentKind = "comment"

// Counts holds the structural counts of one file.
type Counts struct {
	Branches  int
	Comments  int
	Functions int
}

// Body is the interior of a function body, between its outer braces.
// Offsets are byte offsets into the parsed content.
type Body struct {
	Start uint
	End   uint
}

// Summary is everything the parser reports for one file.
type Summary struct {
	Counts
	Bodies []Body
}

// LanguageFor picks the grammar for a path by its extension.
func LanguageFor(filePath string) Language {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	default:
		return JavaScript
	}
}

// Parser holds one tree-sitter parser per grammar.
// A Parser must not be shared between goroutines.
type Parser struct {
	parsers map[Language]*tree_sitter.Parser
}

// NewParser creates a parser set for every supported grammar.
func NewParser() (*Parser, error) {
	p := &Parser{parsers: make(map[Language]*tree_sitter.Parser, 3)}
	grammars := map[Language]*tree_sitter.Language{
		JavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		TypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		TSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
	}
	for lang, grammar := range grammars {
		parser := tree_sitter.NewParser()
		if err := parser.SetLanguage(grammar); err != nil {
			parser.Close()
			p.Close()
			return nil, fmt.Errorf("failed to load %s grammar: %w", lang, err)
		}
		p.parsers[lang] = parser
	}
	return p, nil
}

// Close releases every underlying parser.
func (p *Parser) Close() {
	for lang, parser := range p.parsers {
		parser.Close()
		delete(p.parsers, lang)
	}
}

// Parse parses content with the given grammar and walks every node once.
// Syntax errors do not fail the parse; tree-sitter recovers and the counts
// cover whatever structure it could still recognize.
func (p *Parser) Parse(ctx context.Context, lang Language, content []byte) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parser, ok := p.parsers[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s source", lang)
	}
	defer tree.Close()

	summary := &Summary{}
	root := tree.RootNode()
	if root == nil {
		return summary, nil
	}

	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(node, content, summary)

		// Push in reverse so bodies are collected in source order
		for i := node.ChildCount(); i > 0; i-- {
			if child := node.Child(i - 1); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return summary, nil
}

// visit updates the summary for a single node.
// Anonymous nodes are keyword tokens, so the "function" keyword is never a function.
func visit(node *tree_sitter.Node, content []byte, summary *Summary) {
	if !node.IsNamed() {
		return
	}
	kind := node.Kind()
	if kind == commentKind {
		summary.Comments++
		return
	}
	if _, ok := branchKinds[kind]; ok {
		summary.Branches++
		return
	}
	if _, ok := functionKinds[kind]; ok {
		summary.Functions++
		if body, ok := bodyInterior(node, content); ok {
			summary.Bodies = append(summary.Bodies, body)
		}
	}
}

// bodyInterior returns the span between the braces of a function's block body.
// Expression-bodied arrow functions have no block and are skipped.
func bodyInterior(node *tree_sitter.Node, content []byte) (Body, bool) {
	body := node.ChildByFieldName("body")
	if body == nil || body.Kind() != "statement_block" {
		return Body{}, false
	}
	start, end := body.StartByte(), body.EndByte()
	if end < start+2 || int(end) > len(content) {
		return Body{}, false
	}
	if content[start] != '{' || content[end-1] != '}' {
		return Body{}, false
	}
	return Body{Start: start + 1, End: end - 1}, true
}
