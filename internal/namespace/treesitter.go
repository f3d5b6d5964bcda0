package namespace

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/protobuf"
)

// TreeSitterScanner locates declarations from the protobuf grammar's
// top-level `syntax` and `package` nodes rather than line patterns.
//
// The grammar requires a syntax statement, so files without one (proto2 by
// default) parse into ERROR nodes. Whenever the tree carries errors the
// scanner defers to RegexScanner.
type TreeSitterScanner struct{}

// FindSyntaxLine returns the row of the first top-level syntax node.
func (TreeSitterScanner) FindSyntaxLine(lines []string) (int, bool) {
	return findTopLevel(lines, "syntax")
}

// FindPackageLine returns the row of the first top-level package node.
func (TreeSitterScanner) FindPackageLine(lines []string) (int, bool) {
	return findTopLevel(lines, "package")
}

func findTopLevel(lines []string, kind string) (int, bool) {
	root := ParseProto([]byte(strings.Join(lines, "\n")))
	if root == nil || root.HasError() {
		if kind == "syntax" {
			return RegexScanner{}.FindSyntaxLine(lines)
		}
		return RegexScanner{}.FindPackageLine(lines)
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child != nil && child.Type() == kind {
			return int(child.StartPoint().Row), true
		}
	}
	return -1, false
}

// ParseProto parses content with the protobuf grammar. Returns nil when the
// parser gives up entirely; partial trees with ERROR nodes are returned.
func ParseProto(content []byte) *sitter.Node {
	parser := sitter.NewParser()
	parser.SetLanguage(protobuf.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil
	}
	return tree.RootNode()
}
