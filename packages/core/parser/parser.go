package parser

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Parser struct {
	file string
}

func NewParser(filename string) *Parser {
	return &Parser{file: filename}
}

func ParseFile(path string) (*Suite, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

func Parse(input, filename string) (*Suite, error) {
	return NewParser(filename).Parse([]byte(input))
}

// Parse decodes a suite document, validates it against the suite schema and
// builds the AST.
func (p *Parser) Parse(data []byte) (*Suite, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, p.errorf(0, 0, "invalid YAML: %v", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, p.errorf(0, 0, "empty suite")
	}
	doc := resolve(root.Content[0])

	var generic any
	if err := doc.Decode(&generic); err != nil {
		return nil, p.errorf(doc.Line, doc.Column, "invalid YAML: %v", err)
	}
	violations, err := validateDocument(generic)
	if err != nil {
		return nil, p.errorf(0, 0, "%v", err)
	}
	if len(violations) > 0 {
		return nil, p.errorf(0, 0, "schema: %s", joinViolations(violations))
	}

	suite := &Suite{Path: p.file}
	for _, pair := range mappingPairs(doc) {
		key, value := pair[0], pair[1]
		switch key.Value {
		case "name":
			suite.Name = value.Value
		case "variables":
			suite.Variables = p.parseVariables(value)
		case "checks":
			for _, item := range value.Content {
				check, err := p.parseCheck(resolve(item))
				if err != nil {
					return nil, err
				}
				suite.Checks = append(suite.Checks, check)
			}
		}
	}

	if err := p.checkDuplicateNames(suite); err != nil {
		return nil, err
	}
	return suite, nil
}

func (p *Parser) parseVariables(node *yaml.Node) []*Variable {
	var vars []*Variable
	for _, pair := range mappingPairs(node) {
		vars = append(vars, &Variable{
			Name:  pair[0].Value,
			Value: pair[1].Value,
			Line:  pair[0].Line,
		})
	}
	return vars
}

func (p *Parser) parseCheck(node *yaml.Node) (*Check, error) {
	check := &Check{Line: node.Line}

	for _, pair := range mappingPairs(node) {
		key, value := pair[0], pair[1]
		switch key.Value {
		case "name":
			check.Name = value.Value
		case "description":
			check.Description = value.Value
		case "tags":
			for _, t := range value.Content {
				check.Tags = append(check.Tags, resolve(t).Value)
			}
		case "value":
			check.Value = value.Value
		case "file":
			check.File = value.Value
		case "skip":
			check.Skip = value.Value
		case "only":
			if err := value.Decode(&check.Only); err != nil {
				return nil, p.errorf(value.Line, value.Column, "only: %v", err)
			}
		case "snapshot":
			if err := value.Decode(&check.Snapshot); err != nil {
				return nil, p.errorf(value.Line, value.Column, "snapshot: %v", err)
			}
		case "expect":
			for _, item := range value.Content {
				a, err := p.parseAssertion(resolve(item))
				if err != nil {
					return nil, err
				}
				check.Assertions = append(check.Assertions, a)
			}
		}
	}

	return check, nil
}

func (p *Parser) parseAssertion(node *yaml.Node) (*Assertion, error) {
	a := &Assertion{Line: node.Line}
	found := false

	for _, pair := range mappingPairs(node) {
		key, value := pair[0], pair[1]
		if key.Value == "subject" {
			a.Subject = strings.TrimSpace(value.Value)
			continue
		}

		op, ok := LookupOperator(key.Value)
		if !ok {
			return nil, p.errorf(key.Line, key.Column, "unknown operator: %s", key.Value)
		}
		a.Operator = op
		found = true

		if op == OpContains {
			a.Expected = scalarList(value)
		} else {
			a.Expected = value.Value
		}
	}

	if !found {
		return nil, p.errorf(node.Line, node.Column, "expectation has no operator")
	}
	return a, nil
}

// scalarList reads a scalar or a sequence of scalars in document order.
func scalarList(node *yaml.Node) []string {
	if node.Kind == yaml.ScalarNode {
		return []string{node.Value}
	}
	values := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		values = append(values, resolve(item).Value)
	}
	return values
}

// resolve follows alias nodes to the anchored node they refer to.
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isMergeKey(key *yaml.Node) bool {
	return key.Kind == yaml.ScalarNode && key.Value == "<<" &&
		(key.Tag == "" || key.Tag == "!" || key.ShortTag() == "!!merge")
}

// mappingPairs returns the key/value pairs of a mapping with aliases
// resolved and "<<" merge keys expanded. Explicit keys override merged ones.
func mappingPairs(node *yaml.Node) [][2]*yaml.Node {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}

	var merged, explicit [][2]*yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], resolve(node.Content[i+1])
		if isMergeKey(key) {
			sources := []*yaml.Node{value}
			if value.Kind == yaml.SequenceNode {
				sources = value.Content
			}
			for _, src := range sources {
				merged = append(merged, mappingPairs(src)...)
			}
			continue
		}
		explicit = append(explicit, [2]*yaml.Node{key, value})
	}
	if len(merged) == 0 {
		return explicit
	}

	seen := make(map[string]bool, len(explicit))
	for _, pair := range explicit {
		seen[pair[0].Value] = true
	}
	pairs := make([][2]*yaml.Node, 0, len(merged)+len(explicit))
	for _, pair := range merged {
		if !seen[pair[0].Value] {
			seen[pair[0].Value] = true
			pairs = append(pairs, pair)
		}
	}
	return append(pairs, explicit...)
}

func (p *Parser) checkDuplicateNames(suite *Suite) error {
	seen := make(map[string]int)
	for _, c := range suite.Checks {
		if line, ok := seen[c.Name]; ok {
			return p.errorf(c.Line, 0, "duplicate check name %q (first defined on line %d)", c.Name, line)
		}
		seen[c.Name] = c.Line
	}
	return nil
}

func (p *Parser) errorf(line, column int, format string, args ...any) *ParseError {
	return &ParseError{
		File:    p.file,
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}
