// Package coerce converts dynamically typed leaf values decoded from an
// Avro container into one of the four target column types. The conversion
// matrix is a contract surface: every supported (source, target) pair and
// its rule is fixed, and everything else fails with a coercion error.
package coerce

import (
	"strconv"

	"github.com/modelop/augustus/pkg/avroschema"
	"github.com/modelop/augustus/pkg/errors"
)

// Target is the semantic type of an output column
type Target int

const (
	TargetString Target = iota
	TargetCategory
	TargetInteger
	TargetDouble
)

// String returns the configuration spelling of the target
func (t Target) String() string {
	switch t {
	case TargetString:
		return "string"
	case TargetCategory:
		return "category"
	case TargetInteger:
		return "integer"
	case TargetDouble:
		return "double"
	default:
		return "unknown"
	}
}

// ParseTarget parses the configuration spelling of a target type
func ParseTarget(s string) (Target, error) {
	switch s {
	case "string":
		return TargetString, nil
	case "category":
		return TargetCategory, nil
	case "integer":
		return TargetInteger, nil
	case "double":
		return TargetDouble, nil
	default:
		return 0, errors.Newf(errors.ErrorTypeValidation,
			"target type must be one of string, category, integer, double; got %q", s)
	}
}

// Kind tags the dynamic type of a decoded leaf value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindEnum
	KindRecord
	KindArray
	KindMap
	KindFixed
	KindUnknown
)

// String returns a readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt32:
		return "int"
	case KindInt64:
		return "long"
	case KindFloat32:
		return "float"
	case KindFloat64:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindEnum:
		return "enum"
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Classify tags a decoded leaf value with its dynamic kind. Union leaves are
// collapsed to their selected branch first (a null branch classifies as
// null), mirroring how the Avro generic datum model reports union values.
// The returned value and node are the post-collapse leaf.
func Classify(v interface{}, leaf *avroschema.Node) (Kind, interface{}, *avroschema.Node) {
	if leaf != nil && leaf.Kind() == avroschema.KindUnion {
		if v == nil {
			return KindNull, nil, leaf
		}
		if wrapped, ok := v.(map[string]interface{}); ok && len(wrapped) == 1 {
			for key, inner := range wrapped {
				if branch := leaf.Branch(key); branch != nil {
					return Classify(inner, branch)
				}
			}
		}
		return KindUnknown, v, leaf
	}

	if leaf != nil && leaf.Kind() == avroschema.KindEnum {
		if _, ok := v.(string); ok {
			return KindEnum, v, leaf
		}
	}

	switch v.(type) {
	case nil:
		return KindNull, v, leaf
	case bool:
		return KindBool, v, leaf
	case int32:
		return KindInt32, v, leaf
	case int64:
		return KindInt64, v, leaf
	case float32:
		return KindFloat32, v, leaf
	case float64:
		return KindFloat64, v, leaf
	case string:
		return KindString, v, leaf
	case []byte:
		if leaf != nil && leaf.Kind() == avroschema.KindFixed {
			return KindFixed, v, leaf
		}
		return KindBytes, v, leaf
	case map[string]interface{}:
		if leaf != nil && leaf.Kind() == avroschema.KindMap {
			return KindMap, v, leaf
		}
		return KindRecord, v, leaf
	case []interface{}:
		return KindArray, v, leaf
	default:
		return KindUnknown, v, leaf
	}
}

// ToString converts a leaf value to its string column representation
func ToString(v interface{}, leaf *avroschema.Node) (string, error) {
	kind, value, _ := Classify(v, leaf)
	switch kind {
	case KindString:
		return value.(string), nil
	case KindBytes:
		return string(value.([]byte)), nil
	case KindNull:
		return "null", nil
	case KindBool:
		if value.(bool) {
			return "true", nil
		}
		return "false", nil
	case KindInt32:
		return strconv.FormatInt(int64(value.(int32)), 10), nil
	case KindInt64:
		return strconv.FormatInt(value.(int64), 10), nil
	case KindFloat32:
		return strconv.FormatFloat(float64(value.(float32)), 'g', -1, 32), nil
	case KindFloat64:
		return strconv.FormatFloat(value.(float64), 'g', -1, 64), nil
	default:
		return "", unsupported(TargetString, kind)
	}
}

// ToCategory converts an enum leaf value to its symbol's ordinal index
func ToCategory(v interface{}, leaf *avroschema.Node) (int64, error) {
	kind, value, node := Classify(v, leaf)
	if kind != KindEnum {
		return 0, unsupported(TargetCategory, kind)
	}

	symbol := value.(string)
	ordinal, ok := node.Ordinal(symbol)
	if !ok {
		// The symbol is outside the declared enum: the schema was already
		// validated at open, so this is container corruption
		return 0, errors.Newf(errors.ErrorTypeCorrupt,
			"enum %q has no symbol %q", node.Name(), symbol)
	}
	return int64(ordinal), nil
}

// ToInteger converts a leaf value to its integer column representation.
func ToInteger(v interface{}, leaf *avroschema.Node) (int64, error) {
	kind, value, _ := Classify(v, leaf)
	switch kind {
	case KindBool:
		if value.(bool) {
			return 1, nil
		}
		return 0, nil
	case KindInt32:
		return int64(value.(int32)), nil
	case KindInt64:
		return value.(int64), nil
	default:
		return 0, unsupported(TargetInteger, kind)
	}
}

// ToDouble converts a leaf value to its double column representation.
// Longs above 2^53 lose precision when widened; that is accepted, not
// guarded.
func ToDouble(v interface{}, leaf *avroschema.Node) (float64, error) {
	kind, value, _ := Classify(v, leaf)
	switch kind {
	case KindBool:
		if value.(bool) {
			return 1.0, nil
		}
		return 0.0, nil
	case KindInt32:
		return float64(value.(int32)), nil
	case KindInt64:
		return float64(value.(int64)), nil
	case KindFloat32:
		return float64(value.(float32)), nil
	case KindFloat64:
		return value.(float64), nil
	default:
		return 0, unsupported(TargetDouble, kind)
	}
}

func unsupported(target Target, kind Kind) error {
	return errors.Newf(errors.ErrorTypeCoercion,
		"cannot coerce %s value into %s column", kind, target).
		WithDetail("source", kind.String()).
		WithDetail("target", target.String())
}
