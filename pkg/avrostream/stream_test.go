package avrostream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelop/augustus/pkg/coerce"
	"github.com/modelop/augustus/pkg/columnar"
	"github.com/modelop/augustus/pkg/errors"
)

const profileSchema = `{
	"type": "record",
	"name": "Profile",
	"fields": [
		{"name": "name", "type": "string"},
		{"name": "scores", "type": {
			"type": "record",
			"name": "Scores",
			"fields": [
				{"name": "math", "type": "int"},
				{"name": "lang", "type": "string"}
			]
		}},
		{"name": "color", "type": {"type": "enum", "name": "Color", "symbols": ["red", "blue"]}},
		{"name": "ratio", "type": "double"}
	]
}`

func profileRecord(name string, math int, lang, color string, ratio float64) map[string]interface{} {
	return map[string]interface{}{
		"name":   name,
		"scores": map[string]interface{}{"math": math, "lang": lang},
		"color":  color,
		"ratio":  ratio,
	}
}

func profileRecords() []map[string]interface{} {
	return []map[string]interface{}{
		profileRecord("ada", 7, "en", "blue", 0.5),
		profileRecord("ben", 3, "fr", "red", 1.5),
		profileRecord("cat", 9, "de", "red", 2.5),
		profileRecord("dev", 4, "en", "blue", 3.5),
		profileRecord("eve", 8, "es", "blue", 4.5),
	}
}

// writeContainer builds an OCF fixture file in a temp directory
func writeContainer(t *testing.T, schema string, records []map[string]interface{}) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.avro")
	file, err := os.Create(path)
	require.NoError(t, err)

	codec, err := goavro.NewCodec(schema)
	require.NoError(t, err)

	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{W: file, Codec: codec})
	require.NoError(t, err)

	for _, record := range records {
		require.NoError(t, writer.Append([]interface{}{record}))
	}
	require.NoError(t, file.Close())
	return path
}

func profileSpecs() []ProjectionSpec {
	return []ProjectionSpec{
		{Name: "n", Path: []string{"name"}, Target: coerce.TargetString},
		{Name: "m", Path: []string{"scores", "math"}, Target: coerce.TargetInteger},
	}
}

func TestStreamBatching(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 2, profileSpecs())
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, StateOpen, stream.State())

	// 5 records at capacity 2: pulls of 2, 2, 1, then exhaustion
	var sizes []int
	var names []string
	var maths []int64
	for {
		batch, err := stream.Next()
		require.NoError(t, err)

		rows := batch.Rows()
		sizes = append(sizes, rows)
		if rows == 0 {
			break
		}

		require.Len(t, batch, 2)
		names = append(names, batch["n"].(*columnar.StringColumn).Strings()...)
		maths = append(maths, batch["m"].(*columnar.IntegerColumn).Ints()...)
	}

	assert.Equal(t, []int{2, 2, 1, 0}, sizes)
	assert.Equal(t, []string{"ada", "ben", "cat", "dev", "eve"}, names)
	assert.Equal(t, []int64{7, 3, 9, 4, 8}, maths)

	// Requesting again after exhaustion keeps returning empty batches
	batch, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, batch.Rows())
}

func TestStreamRowTotalAcrossCapacities(t *testing.T) {
	records := profileRecords()
	path := writeContainer(t, profileSchema, records)

	for _, capacity := range []int{1, 2, 3, 5, 10} {
		stream, err := Open(path, capacity, profileSpecs())
		require.NoError(t, err)

		total := 0
		for {
			batch, err := stream.Next()
			require.NoError(t, err)
			rows := batch.Rows()
			if rows == 0 {
				break
			}
			assert.LessOrEqual(t, rows, capacity)
			total += rows
		}

		assert.Equal(t, len(records), total, "capacity %d", capacity)
		require.NoError(t, stream.Close())
	}
}

func TestStreamCategoryColumn(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 10, []ProjectionSpec{
		{Name: "c", Path: []string{"color"}, Target: coerce.TargetCategory},
	})
	require.NoError(t, err)
	defer stream.Close()

	batch, err := stream.Next()
	require.NoError(t, err)

	// blue=1, red=0 per symbol declaration order
	assert.Equal(t, []int64{1, 0, 0, 1, 1}, batch["c"].(*columnar.CategoryColumn).Codes())
}

func TestStreamDoubleColumn(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 10, []ProjectionSpec{
		{Name: "r", Path: []string{"ratio"}, Target: coerce.TargetDouble},
		{Name: "m", Path: []string{"scores", "math"}, Target: coerce.TargetDouble},
	})
	require.NoError(t, err)
	defer stream.Close()

	batch, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.5, 2.5, 3.5, 4.5}, batch["r"].(*columnar.DoubleColumn).Doubles())
	assert.Equal(t, []float64{7, 3, 9, 4, 8}, batch["m"].(*columnar.DoubleColumn).Doubles())
}

func TestStreamStringCoercions(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 10, []ProjectionSpec{
		{Name: "m", Path: []string{"scores", "math"}, Target: coerce.TargetString},
	})
	require.NoError(t, err)
	defer stream.Close()

	batch, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "3", "9", "4", "8"}, batch["m"].(*columnar.StringColumn).Strings())
}

func TestStreamSchema(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 2, profileSpecs())
	require.NoError(t, err)
	defer stream.Close()

	rendered := stream.Schema()
	assert.Contains(t, rendered, `"name":"Profile"`)
	assert.Contains(t, rendered, `"symbols":["red","blue"]`)
	// Deterministic across calls
	assert.Equal(t, rendered, stream.Schema())
}

func TestOpenValidationBeforeIO(t *testing.T) {
	// The file does not exist: a validation failure proves no I/O happened
	missing := filepath.Join(t.TempDir(), "missing.avro")
	specs := profileSpecs()

	tests := []struct {
		name     string
		capacity int
		specs    []ProjectionSpec
	}{
		{"zero capacity", 0, specs},
		{"negative capacity", -1, specs},
		{"no projections", 2, nil},
		{"empty path", 2, []ProjectionSpec{{Name: "x", Path: nil, Target: coerce.TargetString}}},
		{"duplicate names", 2, []ProjectionSpec{
			{Name: "x", Path: []string{"name"}, Target: coerce.TargetString},
			{Name: "x", Path: []string{"ratio"}, Target: coerce.TargetDouble},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := Open(missing, tt.capacity, tt.specs)
			require.Error(t, err)
			assert.Nil(t, stream)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "got %v", err)
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.avro"), 2, profileSpecs())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestOpenUnknownField(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 2, []ProjectionSpec{
		{Name: "x", Path: []string{"address"}, Target: coerce.TargetString},
	})
	require.Error(t, err)
	assert.Nil(t, stream)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}

func TestOpenNonRecordIntermediate(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 2, []ProjectionSpec{
		{Name: "x", Path: []string{"name", "first"}, Target: coerce.TargetString},
	})
	require.Error(t, err)
	assert.Nil(t, stream)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}

func TestStreamCoercionFailureIsTerminal(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	// double -> integer has no rule; the failure is only discovered
	// mid-stream, once a value is decoded
	stream, err := Open(path, 2, []ProjectionSpec{
		{Name: "r", Path: []string{"ratio"}, Target: coerce.TargetInteger},
	})
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCoercion))
	assert.Equal(t, StateFailed, stream.State())

	// No further batches from a failed stream
	_, err = stream.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeClosed))

	// Close remains callable for cleanup
	require.NoError(t, stream.Close())
	assert.Equal(t, StateClosed, stream.State())
}

func TestStreamEnumToStringFails(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 2, []ProjectionSpec{
		{Name: "c", Path: []string{"color"}, Target: coerce.TargetString},
	})
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCoercion))
	assert.Equal(t, StateFailed, stream.State())
}

func TestStreamCorruptContainerIsTerminal(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	truncated := filepath.Join(t.TempDir(), "truncated.avro")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)-10], 0o600))

	stream, err := Open(truncated, 2, profileSpecs())
	require.NoError(t, err)
	defer stream.Close()

	for {
		batch, err := stream.Next()
		if err != nil {
			assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt))
			assert.Equal(t, StateFailed, stream.State())
			return
		}
		require.NotZero(t, batch.Rows(), "truncated container ended cleanly")
	}
}

func TestStreamCloseIdempotent(t *testing.T) {
	path := writeContainer(t, profileSchema, profileRecords())

	stream, err := Open(path, 2, profileSpecs())
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	assert.Equal(t, StateClosed, stream.State())
	require.NoError(t, stream.Close())

	_, err = stream.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeClosed))
}

func TestStreamUnionLeaf(t *testing.T) {
	schema := `{"type": "record", "name": "R", "fields": [
		{"name": "note", "type": ["null", "string"]}
	]}`
	records := []map[string]interface{}{
		{"note": map[string]interface{}{"string": "hi"}},
		{"note": nil},
	}
	path := writeContainer(t, schema, records)

	stream, err := Open(path, 10, []ProjectionSpec{
		{Name: "note", Path: []string{"note"}, Target: coerce.TargetString},
	})
	require.NoError(t, err)
	defer stream.Close()

	batch, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "null"}, batch["note"].(*columnar.StringColumn).Strings())
}
