package app

import (
	"encoding/json"
	"fmt"
	"io"

	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/internal/config"
)

// record is one line of output.
type record struct {
	Iteration int             `json:"iteration"`
	Depth     int             `json:"depth"`
	Input     *int            `json:"input,omitempty"`
	Text      string          `json:"text"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// recordWriter writes derivations as JSON lines. It is not safe for
// concurrent use; sharded runs serialize the sink.
type recordWriter struct {
	enc       *json.Encoder
	conv      config.Converter
	iteration int
	count     int
}

func newRecordWriter(w io.Writer, conv config.Converter) *recordWriter {
	return &recordWriter{enc: json.NewEncoder(w), conv: conv}
}

// write has the signature of generator.Sink.
func (w *recordWriter) write(depth int, d *derivation.Derivation) error {
	return w.writeRecord(record{Iteration: w.iteration, Depth: depth, Text: d.String()}, d)
}

func (w *recordWriter) writeInput(input int, d *derivation.Derivation) error {
	return w.writeRecord(record{Iteration: w.iteration, Input: &input, Text: d.String()}, d)
}

func (w *recordWriter) writeRecord(rec record, d *derivation.Derivation) error {
	v, err := w.conv.ToCtyValue(d.Value())
	if err != nil {
		return fmt.Errorf("derivation %q: %w", rec.Text, err)
	}
	if !v.IsNull() {
		raw, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return fmt.Errorf("derivation %q: failed to encode value: %w", rec.Text, err)
		}
		rec.Value = raw
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	w.count++
	return nil
}
