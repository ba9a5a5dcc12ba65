package avrostream

import (
	"bufio"
	"os"

	"github.com/linkedin/goavro/v2"

	"github.com/modelop/augustus/pkg/errors"
)

// Cursor is an incremental reader over the container's record sequence.
// It owns the file handle and decodes one record per Advance; the decoded
// record is only valid until the next Advance.
type Cursor struct {
	file   *os.File
	reader *goavro.OCFReader
	record interface{}
	closed bool
}

// NewCursor opens the container file and prepares the OCF reader. The file
// handle is released if the header cannot be parsed.
func NewCursor(path string) (*Cursor, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path is caller-controlled by contract
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open container file").
			WithDetail("path", path)
	}

	reader, err := goavro.NewOCFReader(bufio.NewReader(file))
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeCorrupt, "failed to read container header").
			WithDetail("path", path)
	}

	return &Cursor{file: file, reader: reader}, nil
}

// SchemaJSON returns the schema document from the container header
func (c *Cursor) SchemaJSON() string {
	return c.reader.Codec().Schema()
}

// Advance decodes the next record. It returns false with a nil error at
// clean end-of-stream and an error on malformed container content; the
// caller must treat any error as fatal for the stream.
func (c *Cursor) Advance() (bool, error) {
	if c.closed {
		return false, errors.New(errors.ErrorTypeClosed, "cursor is closed")
	}

	if !c.reader.Scan() {
		if err := c.reader.Err(); err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeCorrupt, "container framing error")
		}
		return false, nil
	}

	record, err := c.reader.Read()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeCorrupt, "failed to decode record")
	}

	c.record = record
	return true, nil
}

// Record returns the record decoded by the last successful Advance
func (c *Cursor) Record() interface{} {
	return c.record
}

// Close releases the file handle. Closing an already-closed cursor is a
// no-op returning nil.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.record = nil

	if err := c.file.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close container file")
	}
	return nil
}
