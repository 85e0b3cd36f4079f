// Package parser reads checkspec suite files.
//
// A suite is a YAML document with an optional name, a map of variables and a
// list of checks. Each check names its source (an inline value or a file)
// and lists expectations, each with one operator:
//
//	checks:
//	  - name: greeting
//	    value: "Hello {{who}}"
//	    expect:
//	      - contains: [Hello, World]
//	      - startsWith: Hello
//
// Documents are validated against an embedded JSON Schema before the AST is
// built, so every structural problem is reported at once.
package parser
