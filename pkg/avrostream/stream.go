// Package avrostream extracts a chosen subset of fields from an Avro object
// container file into flat typed columns, one bounded-size batch at a time.
//
// A Stream is opened with a set of named projections (field path plus
// target column type). Paths are resolved against the container schema once
// at open time; each Next call then pulls up to the batch capacity of
// records, walks every projection's resolved path and coerces the leaf
// value into its column. A Stream is single-threaded: all state is private
// to the instance and must be driven by one goroutine.
package avrostream

import (
	"go.uber.org/zap"

	"github.com/modelop/augustus/pkg/avroschema"
	"github.com/modelop/augustus/pkg/coerce"
	"github.com/modelop/augustus/pkg/columnar"
	"github.com/modelop/augustus/pkg/errors"
	"github.com/modelop/augustus/pkg/logger"
)

// State is the lifecycle state of a stream
type State int

const (
	// StateOpen means the stream is serving batches
	StateOpen State = iota
	// StateClosed means the stream was closed explicitly
	StateClosed
	// StateFailed means an unrecoverable error occurred; only Close is allowed
	StateFailed
)

// String returns a readable name for the state
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProjectionSpec names one output column: where its values come from and
// what type they are coerced into
type ProjectionSpec struct {
	Name   string
	Path   []string
	Target coerce.Target
}

// Batch holds one column per projection, keyed by projection name. All
// columns have the same length; a zero-row batch signals exhaustion.
type Batch map[string]columnar.Column

// Rows returns the number of records in the batch
func (b Batch) Rows() int {
	for _, col := range b {
		return col.Len()
	}
	return 0
}

// projection pairs a spec with its open-time resolution
type projection struct {
	spec     ProjectionSpec
	resolved avroschema.ResolvedPath
}

// Stream pulls projected, coerced column batches out of one container file
type Stream struct {
	path        string
	capacity    int
	projections []projection
	cursor      *Cursor
	schema      *avroschema.Node
	state       State
	records     int64
	log         *zap.Logger
}

// Open validates the projections, opens the container file, parses its
// schema and resolves every projection path. Validation happens strictly
// before any file I/O; on any failure no partially-open resources are left
// live and the returned stream is nil.
func Open(path string, batchCapacity int, specs []ProjectionSpec) (*Stream, error) {
	if err := validateSpecs(batchCapacity, specs); err != nil {
		return nil, err
	}

	cursor, err := NewCursor(path)
	if err != nil {
		return nil, err
	}

	schema, err := avroschema.Parse(cursor.SchemaJSON())
	if err != nil {
		_ = cursor.Close()
		return nil, err
	}

	projections := make([]projection, 0, len(specs))
	for _, spec := range specs {
		resolved, err := avroschema.Resolve(schema, spec.Path)
		if err != nil {
			_ = cursor.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeSchema, "failed to resolve projection").
				WithDetail("projection", spec.Name)
		}
		projections = append(projections, projection{spec: spec, resolved: resolved})
	}

	log := logger.With(zap.String("file", path))
	log.Info("stream opened",
		zap.Int("batch_capacity", batchCapacity),
		zap.Int("projections", len(projections)))

	return &Stream{
		path:        path,
		capacity:    batchCapacity,
		projections: projections,
		cursor:      cursor,
		schema:      schema,
		state:       StateOpen,
		log:         log,
	}, nil
}

// validateSpecs performs the caller-misuse checks that must happen before
// any I/O is attempted
func validateSpecs(batchCapacity int, specs []ProjectionSpec) error {
	if batchCapacity <= 0 {
		return errors.Newf(errors.ErrorTypeValidation,
			"batch capacity must be positive, got %d", batchCapacity)
	}
	if len(specs) == 0 {
		return errors.New(errors.ErrorTypeValidation, "at least one projection is required")
	}

	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			return errors.Newf(errors.ErrorTypeValidation,
				"duplicate projection name %q", spec.Name)
		}
		seen[spec.Name] = true

		if len(spec.Path) == 0 {
			return errors.Newf(errors.ErrorTypeValidation,
				"projection %q has an empty path", spec.Name)
		}
	}
	return nil
}

// State returns the current lifecycle state
func (s *Stream) State() State {
	return s.state
}

// Schema returns a deterministic JSON rendering of the full container
// schema, for diagnostics
func (s *Stream) Schema() string {
	return s.schema.JSON()
}

// Next pulls the next batch: up to the batch capacity of records, one
// column per projection, truncated to the number of records actually read.
// A zero-row batch signals exhaustion; calling Next again after exhaustion
// returns another zero-row batch without error. Any failure moves the
// stream to the failed state and releases the file handle.
func (s *Stream) Next() (Batch, error) {
	switch s.state {
	case StateClosed:
		return nil, errors.New(errors.ErrorTypeClosed, "stream is closed")
	case StateFailed:
		return nil, errors.New(errors.ErrorTypeClosed, "stream has failed")
	}

	batch := make(Batch, len(s.projections))
	columns := make([]columnar.Column, len(s.projections))
	for i, p := range s.projections {
		columns[i] = columnar.New(p.spec.Target, s.capacity)
		batch[p.spec.Name] = columns[i]
	}

	count := 0
	for count < s.capacity {
		ok, err := s.cursor.Advance()
		if err != nil {
			return nil, s.fail(err)
		}
		if !ok {
			break
		}

		record, ok := s.cursor.Record().(map[string]interface{})
		if !ok {
			return nil, s.fail(errors.Newf(errors.ErrorTypeCorrupt,
				"top-level value is not a record (%T)", s.cursor.Record()))
		}

		for i, p := range s.projections {
			leaf, err := walk(record, p.resolved)
			if err != nil {
				return nil, s.fail(errors.Wrap(err, errors.ErrorTypeCorrupt, "failed to extract field").
					WithDetail("projection", p.spec.Name).
					WithDetail("record", s.records+int64(count)))
			}

			if err := appendCoerced(columns[i], p, leaf); err != nil {
				// An unknown enum symbol is container corruption, not a
				// coercion mismatch; keep the inner classification
				errType := errors.ErrorTypeCoercion
				if errors.IsType(err, errors.ErrorTypeCorrupt) {
					errType = errors.ErrorTypeCorrupt
				}
				return nil, s.fail(errors.Wrap(err, errType, "failed to coerce field").
					WithDetail("projection", p.spec.Name).
					WithDetail("record", s.records+int64(count)))
			}
		}

		count++
	}

	for _, col := range columns {
		col.Truncate(count)
	}
	s.records += int64(count)

	s.log.Debug("batch pulled",
		zap.Int("rows", count),
		zap.Int64("total_records", s.records))

	return batch, nil
}

// walk follows a resolved path into a decoded record. Every non-terminal
// step must land on a nested record.
func walk(record map[string]interface{}, resolved avroschema.ResolvedPath) (interface{}, error) {
	current := record
	last := len(resolved.Fields) - 1

	for step := 0; step < last; step++ {
		field, ok := current[resolved.Fields[step]]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeCorrupt,
				"record is missing field %q", resolved.Fields[step])
		}
		nested, ok := field.(map[string]interface{})
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeCorrupt,
				"field %q is not a record (%T)", resolved.Fields[step], field)
		}
		current = nested
	}

	field, ok := current[resolved.Fields[last]]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCorrupt,
			"record is missing field %q", resolved.Fields[last])
	}
	return field, nil
}

// appendCoerced converts the leaf value to the projection's target type and
// appends it to the column
func appendCoerced(col columnar.Column, p projection, leaf interface{}) error {
	switch p.spec.Target {
	case coerce.TargetString:
		v, err := coerce.ToString(leaf, p.resolved.Leaf)
		if err != nil {
			return err
		}
		return col.Append(v)
	case coerce.TargetCategory:
		v, err := coerce.ToCategory(leaf, p.resolved.Leaf)
		if err != nil {
			return err
		}
		return col.Append(v)
	case coerce.TargetInteger:
		v, err := coerce.ToInteger(leaf, p.resolved.Leaf)
		if err != nil {
			return err
		}
		return col.Append(v)
	case coerce.TargetDouble:
		v, err := coerce.ToDouble(leaf, p.resolved.Leaf)
		if err != nil {
			return err
		}
		return col.Append(v)
	default:
		return errors.Newf(errors.ErrorTypeInternal, "unknown target type %d", p.spec.Target)
	}
}

// fail moves the stream to the failed state and releases the file handle.
// Close remains callable for cleanup.
func (s *Stream) fail(err error) error {
	s.state = StateFailed
	_ = s.cursor.Close()
	s.log.Error("stream failed", zap.Error(err))
	return err
}

// Close releases the cursor and moves the stream to the closed state. It is
// safe to call from the open or failed state; closing an already-closed
// stream is a no-op returning nil.
func (s *Stream) Close() error {
	if s.state == StateClosed {
		return nil
	}

	prev := s.state
	s.state = StateClosed

	err := s.cursor.Close()
	s.log.Info("stream closed",
		zap.String("from_state", prev.String()),
		zap.Int64("total_records", s.records))
	return err
}
