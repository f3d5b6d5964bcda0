// Package linter reports non-fatal problems in staged .proto files.
// Nothing here stops a run: protoc remains the authority on validity.
package linter

import (
	"bytes"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/protobuf"

	"github.com/agentic-research/pbgen/internal/namespace"
)

// Severity orders diagnostics for logging.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

type Diagnostic struct {
	Severity Severity
	Message  string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d:%d: %s", d.Line+1, d.Column+1, d.Message)
}

const declQuery = `
(syntax) @syntax
(package) @package
`

// Lint checks proto source for repeated declarations (only the first is
// rewritten) and for regions the grammar could not parse.
func Lint(content []byte) ([]Diagnostic, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}
	root := namespace.ParseProto(content)
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree")
	}

	q, err := sitter.NewQuery([]byte(declQuery), protobuf.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q, root)

	var diags []Diagnostic
	seen := map[string]uint32{}
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			kind := q.CaptureNameForId(c.Index)
			row := c.Node.StartPoint().Row
			if first, dup := seen[kind]; dup {
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("duplicate %s declaration ignored (first at line %d)", kind, first+1),
					Line:     row,
					Column:   c.Node.StartPoint().Column,
				})
				continue
			}
			seen[kind] = row
		}
	}

	// Without a syntax statement the grammar cannot parse the file at all,
	// so its error nodes say nothing about the declarations that follow.
	if _, hasSyntax := seen["syntax"]; hasSyntax && root.HasError() {
		collectErrors(root, &diags)
	}
	return diags, nil
}

// collectErrors gathers ERROR/MISSING nodes. The bundled grammar lags
// behind protoc, so these are informational only.
func collectErrors(node *sitter.Node, diags *[]Diagnostic) {
	if node.IsError() || node.IsMissing() {
		*diags = append(*diags, Diagnostic{
			Severity: SeverityInfo,
			Message:  "unparsed region",
			Line:     node.StartPoint().Row,
			Column:   node.StartPoint().Column,
		})
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, diags)
		}
	}
}
