package db

import (
	"github.com/vmihailenco/msgpack/v5"
)

// PayloadSchema is the current payload version. Rows written with another
// version are treated as cache misses.
const PayloadSchema uint16 = 1

// Payload is the msgpack-encoded body of a cached render.
type Payload struct {
	Schema uint16

	// Rendered output for the row's target.
	Output string

	// Directive names used by the document, in order of first appearance.
	Directives []string
}

// EncodePayload serializes p, stamping the current schema.
func EncodePayload(p *Payload) ([]byte, error) {
	p.Schema = PayloadSchema
	return msgpack.Marshal(p)
}

// DecodePayload deserializes data. ok is false when the schema is stale.
func DecodePayload(data []byte) (p *Payload, ok bool, err error) {
	p = &Payload{}
	if err := msgpack.Unmarshal(data, p); err != nil {
		return nil, false, err
	}
	return p, p.Schema == PayloadSchema, nil
}
