// Package columnar provides the typed output column buffers filled by one
// batch pull. A column is allocated with the batch capacity and truncated
// to the number of records actually read on the final partial batch.
package columnar

import (
	"github.com/modelop/augustus/pkg/coerce"
	"github.com/modelop/augustus/pkg/errors"
)

// Column is the base interface for all column types
type Column interface {
	Target() coerce.Target
	Len() int
	Cap() int
	Get(i int) interface{}
	Append(value interface{}) error
	Truncate(n int)
}

// New creates a column of the given target type with the given capacity
func New(target coerce.Target, capacity int) Column {
	switch target {
	case coerce.TargetString:
		return NewStringColumn(capacity)
	case coerce.TargetCategory:
		return NewCategoryColumn(capacity)
	case coerce.TargetInteger:
		return NewIntegerColumn(capacity)
	case coerce.TargetDouble:
		return NewDoubleColumn(capacity)
	default:
		return NewStringColumn(capacity)
	}
}

// StringColumn stores string values
type StringColumn struct {
	values []string
}

// NewStringColumn creates a new string column
func NewStringColumn(capacity int) *StringColumn {
	return &StringColumn{values: make([]string, 0, capacity)}
}

func (c *StringColumn) Target() coerce.Target { return coerce.TargetString }
func (c *StringColumn) Len() int              { return len(c.values) }
func (c *StringColumn) Cap() int              { return cap(c.values) }

func (c *StringColumn) Get(i int) interface{} {
	return c.values[i]
}

func (c *StringColumn) Append(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return errors.Newf(errors.ErrorTypeInternal, "expected string, got %T", value)
	}
	c.values = append(c.values, str)
	return nil
}

func (c *StringColumn) Truncate(n int) {
	if n < len(c.values) {
		c.values = c.values[:n]
	}
}

// Strings returns the backing slice
func (c *StringColumn) Strings() []string { return c.values }

// CategoryColumn stores enum symbols as their ordinal codes
type CategoryColumn struct {
	codes []int64
}

// NewCategoryColumn creates a new category column
func NewCategoryColumn(capacity int) *CategoryColumn {
	return &CategoryColumn{codes: make([]int64, 0, capacity)}
}

func (c *CategoryColumn) Target() coerce.Target { return coerce.TargetCategory }
func (c *CategoryColumn) Len() int              { return len(c.codes) }
func (c *CategoryColumn) Cap() int              { return cap(c.codes) }

func (c *CategoryColumn) Get(i int) interface{} {
	return c.codes[i]
}

func (c *CategoryColumn) Append(value interface{}) error {
	code, ok := value.(int64)
	if !ok {
		return errors.Newf(errors.ErrorTypeInternal, "expected int64 code, got %T", value)
	}
	c.codes = append(c.codes, code)
	return nil
}

func (c *CategoryColumn) Truncate(n int) {
	if n < len(c.codes) {
		c.codes = c.codes[:n]
	}
}

// Codes returns the backing slice
func (c *CategoryColumn) Codes() []int64 { return c.codes }

// IntegerColumn stores integer values
type IntegerColumn struct {
	values []int64
}

// NewIntegerColumn creates a new integer column
func NewIntegerColumn(capacity int) *IntegerColumn {
	return &IntegerColumn{values: make([]int64, 0, capacity)}
}

func (c *IntegerColumn) Target() coerce.Target { return coerce.TargetInteger }
func (c *IntegerColumn) Len() int              { return len(c.values) }
func (c *IntegerColumn) Cap() int              { return cap(c.values) }

func (c *IntegerColumn) Get(i int) interface{} {
	return c.values[i]
}

func (c *IntegerColumn) Append(value interface{}) error {
	intVal, ok := value.(int64)
	if !ok {
		return errors.Newf(errors.ErrorTypeInternal, "expected int64, got %T", value)
	}
	c.values = append(c.values, intVal)
	return nil
}

func (c *IntegerColumn) Truncate(n int) {
	if n < len(c.values) {
		c.values = c.values[:n]
	}
}

// Ints returns the backing slice
func (c *IntegerColumn) Ints() []int64 { return c.values }

// DoubleColumn stores floating point values
type DoubleColumn struct {
	values []float64
}

// NewDoubleColumn creates a new double column
func NewDoubleColumn(capacity int) *DoubleColumn {
	return &DoubleColumn{values: make([]float64, 0, capacity)}
}

func (c *DoubleColumn) Target() coerce.Target { return coerce.TargetDouble }
func (c *DoubleColumn) Len() int              { return len(c.values) }
func (c *DoubleColumn) Cap() int              { return cap(c.values) }

func (c *DoubleColumn) Get(i int) interface{} {
	return c.values[i]
}

func (c *DoubleColumn) Append(value interface{}) error {
	floatVal, ok := value.(float64)
	if !ok {
		return errors.Newf(errors.ErrorTypeInternal, "expected float64, got %T", value)
	}
	c.values = append(c.values, floatVal)
	return nil
}

func (c *DoubleColumn) Truncate(n int) {
	if n < len(c.values) {
		c.values = c.values[:n]
	}
}

// Doubles returns the backing slice
func (c *DoubleColumn) Doubles() []float64 { return c.values }
