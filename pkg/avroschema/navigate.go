package avroschema

import (
	"strings"

	"github.com/modelop/augustus/pkg/errors"
)

// ResolvedPath is the integer-indexed form of a projection field path,
// computed once at open time. Fields caches the path element names so the
// per-record walk never searches the schema again; Leaf is the terminal
// node, kept for type checking during coercion.
type ResolvedPath struct {
	Indices []int
	Fields  []string
	Leaf    *Node
}

// Resolve walks a field path against the schema tree and returns the
// resolved index path. Every non-terminal step must land on a record node.
// Re-resolving the same path on the same tree is deterministic.
func Resolve(root *Node, path []string) (ResolvedPath, error) {
	if len(path) == 0 {
		return ResolvedPath{}, errors.New(errors.ErrorTypeValidation, "projection path is empty")
	}

	resolved := ResolvedPath{
		Indices: make([]int, 0, len(path)),
		Fields:  make([]string, 0, len(path)),
	}

	node := root
	for step, element := range path {
		if node.Kind() != KindRecord {
			return ResolvedPath{}, errors.Newf(errors.ErrorTypeSchema,
				"path %q descends through non-record type %s", strings.Join(path, "."), node.Kind()).
				WithDetail("element", element).
				WithDetail("position", step)
		}

		index := node.FieldIndex(element)
		if index < 0 {
			return ResolvedPath{}, errors.Newf(errors.ErrorTypeSchema,
				"field %q not found in record %q", element, node.Name()).
				WithDetail("path", strings.Join(path, ".")).
				WithDetail("position", step)
		}

		resolved.Indices = append(resolved.Indices, index)
		resolved.Fields = append(resolved.Fields, element)
		node = node.Fields()[index].Type
	}

	resolved.Leaf = node
	return resolved, nil
}
