package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Decoder reads events back from an NDJSON or msgpack dump written by a
// StreamTracer or RingTracer.Dump.
type Decoder struct {
	format Format
	js     *json.Decoder
	mp     *msgpack.Decoder
	n      int
}

// NewDecoder creates a decoder for the given dump format.
// Text dumps are lossy and cannot be decoded.
func NewDecoder(r io.Reader, format Format) (*Decoder, error) {
	d := &Decoder{format: format}
	switch format {
	case FormatNDJSON:
		d.js = json.NewDecoder(bufio.NewReader(r))
	case FormatMsgpack:
		d.mp = msgpack.NewDecoder(bufio.NewReader(r))
	default:
		return nil, fmt.Errorf("cannot decode %s trace dumps", format)
	}
	return d, nil
}

// Next decodes the next event into ev. It returns io.EOF after the last one.
func (d *Decoder) Next(ev *Event) error {
	d.n++
	switch d.format {
	case FormatNDJSON:
		var j jsonEvent
		if err := d.js.Decode(&j); err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return fmt.Errorf("event %d: %w", d.n, err)
		}
		decoded, err := j.event()
		if err != nil {
			return fmt.Errorf("event %d: %w", d.n, err)
		}
		*ev = decoded
		return nil
	default:
		*ev = Event{}
		if err := d.mp.Decode(ev); err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return fmt.Errorf("event %d: %w", d.n, err)
		}
		return nil
	}
}

func (j *jsonEvent) event() (Event, error) {
	ts, err := time.Parse(jsonTimeLayout, j.Time)
	if err != nil {
		return Event{}, fmt.Errorf("bad time %q: %w", j.Time, err)
	}
	kind, ok := ParseKind(j.Kind)
	if !ok {
		return Event{}, fmt.Errorf("unknown event kind %q", j.Kind)
	}
	level, err := ParseLevel(j.Level)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Time:     ts,
		Seq:      j.Seq,
		Kind:     kind,
		Level:    level,
		SpanID:   j.SpanID,
		ParentID: j.ParentID,
		GID:      j.GID,
		Name:     j.Name,
		Target:   j.Target,
		File:     j.File,
		Line:     j.Line,
		Detail:   j.Detail,
		Extra:    j.Extra,
	}, nil
}
