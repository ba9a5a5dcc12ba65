// Package avroschema models the schema tree embedded in an Avro object
// container file and resolves projection field paths against it.
package avroschema

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/modelop/augustus/pkg/errors"
	"github.com/modelop/augustus/pkg/json"
)

// Kind identifies the variant of a schema node
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindRecord
	KindEnum
	KindArray
	KindMap
	KindUnion
	KindFixed
)

// String returns the Avro spelling of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindRecord:
		return "record"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

var primitiveKinds = map[string]Kind{
	"null":    KindNull,
	"boolean": KindBoolean,
	"int":     KindInt,
	"long":    KindLong,
	"float":   KindFloat,
	"double":  KindDouble,
	"bytes":   KindBytes,
	"string":  KindString,
}

// Field is one named field of a record node
type Field struct {
	Name string
	Type *Node
}

// Node is one node of the schema tree. Nodes are immutable once parsed;
// the open stream owns the tree for its lifetime.
type Node struct {
	kind     Kind
	name     string // full name for record/enum/fixed
	fields   []Field
	symbols  []string
	ordinals map[string]int
	items    *Node // array element type
	values   *Node // map value type
	branches []*Node
	size     int // fixed size
}

// Kind returns the node's variant
func (n *Node) Kind() Kind { return n.kind }

// Name returns the full name of a record, enum or fixed node
func (n *Node) Name() string { return n.name }

// Fields returns the ordered fields of a record node
func (n *Node) Fields() []Field { return n.fields }

// FieldIndex returns the position of the first field with the given name
// in declaration order, or -1 if no field matches. Field names are unique
// in well-formed schemas; first match is the documented tie-break otherwise.
func (n *Node) FieldIndex(name string) int {
	for i, f := range n.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Symbols returns the ordered symbols of an enum node
func (n *Node) Symbols() []string { return n.symbols }

// Ordinal returns the ordinal index of an enum symbol
func (n *Node) Ordinal(symbol string) (int, bool) {
	ord, ok := n.ordinals[symbol]
	return ord, ok
}

// Items returns the element type of an array node
func (n *Node) Items() *Node { return n.items }

// Values returns the value type of a map node
func (n *Node) Values() *Node { return n.values }

// Branches returns the alternative types of a union node
func (n *Node) Branches() []*Node { return n.branches }

// Size returns the byte size of a fixed node
func (n *Node) Size() int { return n.size }

// Branch returns the union branch matching a decoded union key. Keys are
// the primitive type names, "array", "map", or the full name of a named
// type, which is how goavro labels union values.
func (n *Node) Branch(key string) *Node {
	for _, b := range n.branches {
		switch b.kind {
		case KindRecord, KindEnum, KindFixed:
			if b.name == key {
				return b
			}
		case KindArray, KindMap:
			if b.kind.String() == key {
				return b
			}
		default:
			if b.kind.String() == key {
				return b
			}
		}
	}
	return nil
}

// parser carries the named-type registry and namespace context during parsing
type parser struct {
	named map[string]*Node
}

// Parse builds the schema tree from the container's schema JSON
func Parse(schemaJSON string) (*Node, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(schemaJSON), &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCorrupt, "container schema is not valid JSON")
	}

	p := &parser{named: make(map[string]*Node)}
	node, err := p.parse(raw, "")
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) parse(raw interface{}, namespace string) (*Node, error) {
	switch t := raw.(type) {
	case string:
		return p.parseName(t, namespace)
	case []interface{}:
		return p.parseUnion(t, namespace)
	case map[string]interface{}:
		return p.parseObject(t, namespace)
	default:
		return nil, errors.Newf(errors.ErrorTypeCorrupt, "unexpected schema element of type %T", raw)
	}
}

func (p *parser) parseName(name, namespace string) (*Node, error) {
	if kind, ok := primitiveKinds[name]; ok {
		return &Node{kind: kind}, nil
	}
	if node, ok := p.named[fullName(name, namespace)]; ok {
		return node, nil
	}
	if node, ok := p.named[name]; ok {
		return node, nil
	}
	return nil, errors.Newf(errors.ErrorTypeCorrupt, "reference to undeclared type %q", name)
}

func (p *parser) parseUnion(raw []interface{}, namespace string) (*Node, error) {
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrorTypeCorrupt, "union with no branches")
	}
	branches := make([]*Node, 0, len(raw))
	for _, branch := range raw {
		node, err := p.parse(branch, namespace)
		if err != nil {
			return nil, err
		}
		branches = append(branches, node)
	}
	return &Node{kind: KindUnion, branches: branches}, nil
}

func (p *parser) parseObject(raw map[string]interface{}, namespace string) (*Node, error) {
	typeAttr, ok := raw["type"]
	if !ok {
		return nil, errors.New(errors.ErrorTypeCorrupt, "schema object has no type attribute")
	}

	// {"type": {...}} and {"type": [...]} wrap a nested definition
	typeName, ok := typeAttr.(string)
	if !ok {
		return p.parse(typeAttr, namespace)
	}

	if ns, ok := raw["namespace"].(string); ok && ns != "" {
		namespace = ns
	}

	switch typeName {
	case "record", "error":
		return p.parseRecord(raw, namespace)
	case "enum":
		return p.parseEnum(raw, namespace)
	case "array":
		items, err := p.parse(raw["items"], namespace)
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindArray, items: items}, nil
	case "map":
		values, err := p.parse(raw["values"], namespace)
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindMap, values: values}, nil
	case "fixed":
		return p.parseFixed(raw, namespace)
	default:
		return p.parseName(typeName, namespace)
	}
}

func (p *parser) parseRecord(raw map[string]interface{}, namespace string) (*Node, error) {
	name, err := objectName(raw, namespace)
	if err != nil {
		return nil, err
	}

	node := &Node{kind: KindRecord, name: name}
	// Register before parsing fields so recursive references resolve
	p.named[name] = node

	rawFields, ok := raw["fields"].([]interface{})
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCorrupt, "record %q has no fields array", name)
	}

	node.fields = make([]Field, 0, len(rawFields))
	for _, rawField := range rawFields {
		fieldObj, ok := rawField.(map[string]interface{})
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeCorrupt, "record %q has a malformed field", name)
		}
		fieldName, ok := fieldObj["name"].(string)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeCorrupt, "record %q has a field without a name", name)
		}
		fieldType, err := p.parse(fieldObj["type"], namespace)
		if err != nil {
			return nil, err
		}
		node.fields = append(node.fields, Field{Name: fieldName, Type: fieldType})
	}

	return node, nil
}

func (p *parser) parseEnum(raw map[string]interface{}, namespace string) (*Node, error) {
	name, err := objectName(raw, namespace)
	if err != nil {
		return nil, err
	}

	rawSymbols, ok := raw["symbols"].([]interface{})
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCorrupt, "enum %q has no symbols array", name)
	}

	node := &Node{
		kind:     KindEnum,
		name:     name,
		symbols:  make([]string, 0, len(rawSymbols)),
		ordinals: make(map[string]int, len(rawSymbols)),
	}
	for i, rawSymbol := range rawSymbols {
		symbol, ok := rawSymbol.(string)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeCorrupt, "enum %q has a non-string symbol", name)
		}
		node.symbols = append(node.symbols, symbol)
		node.ordinals[symbol] = i
	}

	p.named[name] = node
	return node, nil
}

func (p *parser) parseFixed(raw map[string]interface{}, namespace string) (*Node, error) {
	name, err := objectName(raw, namespace)
	if err != nil {
		return nil, err
	}
	size, ok := raw["size"].(float64)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCorrupt, "fixed %q has no size", name)
	}
	node := &Node{kind: KindFixed, name: name, size: int(size)}
	p.named[name] = node
	return node, nil
}

func objectName(raw map[string]interface{}, namespace string) (string, error) {
	name, ok := raw["name"].(string)
	if !ok || name == "" {
		return "", errors.New(errors.ErrorTypeCorrupt, "named schema type without a name")
	}
	return fullName(name, namespace), nil
}

func fullName(name, namespace string) string {
	if namespace == "" || strings.Contains(name, ".") {
		return name
	}
	return namespace + "." + name
}

// JSON renders the schema tree as a deterministic JSON document. Field and
// symbol order follow the declaration order; a named type is fully rendered
// on first occurrence and referenced by name afterwards.
func (n *Node) JSON() string {
	var buf bytes.Buffer
	n.render(&buf, make(map[string]bool))
	return buf.String()
}

func (n *Node) render(buf *bytes.Buffer, rendered map[string]bool) {
	switch n.kind {
	case KindRecord:
		if rendered[n.name] {
			writeString(buf, n.name)
			return
		}
		rendered[n.name] = true
		buf.WriteString(`{"type":"record","name":`)
		writeString(buf, n.name)
		buf.WriteString(`,"fields":[`)
		for i, f := range n.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`{"name":`)
			writeString(buf, f.Name)
			buf.WriteString(`,"type":`)
			f.Type.render(buf, rendered)
			buf.WriteByte('}')
		}
		buf.WriteString(`]}`)
	case KindEnum:
		if rendered[n.name] {
			writeString(buf, n.name)
			return
		}
		rendered[n.name] = true
		buf.WriteString(`{"type":"enum","name":`)
		writeString(buf, n.name)
		buf.WriteString(`,"symbols":[`)
		for i, s := range n.symbols {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, s)
		}
		buf.WriteString(`]}`)
	case KindArray:
		buf.WriteString(`{"type":"array","items":`)
		n.items.render(buf, rendered)
		buf.WriteByte('}')
	case KindMap:
		buf.WriteString(`{"type":"map","values":`)
		n.values.render(buf, rendered)
		buf.WriteByte('}')
	case KindUnion:
		buf.WriteByte('[')
		for i, b := range n.branches {
			if i > 0 {
				buf.WriteByte(',')
			}
			b.render(buf, rendered)
		}
		buf.WriteByte(']')
	case KindFixed:
		if rendered[n.name] {
			writeString(buf, n.name)
			return
		}
		rendered[n.name] = true
		buf.WriteString(`{"type":"fixed","name":`)
		writeString(buf, n.name)
		buf.WriteString(`,"size":`)
		buf.WriteString(strconv.Itoa(n.size))
		buf.WriteByte('}')
	default:
		writeString(buf, n.kind.String())
	}
}

func writeString(buf *bytes.Buffer, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail; keep the render total regardless
		buf.WriteString(`""`)
		return
	}
	buf.Write(encoded)
}
