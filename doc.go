// Package augustus extracts a chosen subset of fields from Avro object
// container files into flat, typed columns, processed in bounded-size
// batches.
//
// The decoder resolves dotted field paths against the container's embedded
// schema once at open time, then iterates the record sequence incrementally,
// coercing each projected leaf value into one of four column types (string,
// category, integer, double) according to a fixed conversion matrix.
//
// # Quick Start
//
// Open a stream with named projections and pull batches until exhaustion:
//
//	import (
//	    "github.com/modelop/augustus/pkg/avrostream"
//	    "github.com/modelop/augustus/pkg/coerce"
//	    "github.com/modelop/augustus/pkg/columnar"
//	)
//
//	stream, err := avrostream.Open("data.avro", 1000, []avrostream.ProjectionSpec{
//	    {Name: "n", Path: []string{"name"}, Target: coerce.TargetString},
//	    {Name: "m", Path: []string{"scores", "math"}, Target: coerce.TargetInteger},
//	})
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for {
//	    batch, err := stream.Next()
//	    if err != nil {
//	        return err
//	    }
//	    if batch.Rows() == 0 {
//	        break
//	    }
//	    names := batch["n"].(*columnar.StringColumn).Strings()
//	    _ = names
//	}
//
// # Packages
//
//   - pkg/avrostream: the projected stream and record cursor
//   - pkg/avroschema: schema tree parsing and field path resolution
//   - pkg/coerce: the leaf value coercion matrix
//   - pkg/columnar: typed output column buffers
//   - pkg/streamconfig: YAML projection configuration
//   - pkg/errors, pkg/logger, pkg/json: shared infrastructure
package augustus
