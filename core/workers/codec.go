package workers

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
)

var ErrUnsupportedCodec = errors.New("unsupported codec")

// Codec defines the interface for encoding/decoding channel messages.
type Codec interface {
	// Encode encodes a value to bytes
	Encode(v any) ([]byte, error)

	// Decode decodes bytes to a value
	Decode(data []byte, v any) error

	// Name returns the codec name
	Name() string
}

// CodecType identifies a codec on the wire.
type CodecType byte

const (
	CodecRaw      CodecType = 0x00 // payload passed through untouched
	CodecGob      CodecType = 0x01
	CodecJSON     CodecType = 0x02
	CodecProtobuf CodecType = 0x03
)

// GetCodec returns a codec by type.
func GetCodec(typ CodecType) (Codec, error) {
	switch typ {
	case CodecGob:
		return &GobCodec{}, nil
	case CodecJSON:
		return &JSONCodec{}, nil
	case CodecProtobuf:
		return &ProtobufCodec{}, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

// GobCodec implements gob encoding/decoding, the default for Go-to-Go
// worker messages.
type GobCodec struct{}

func (c *GobCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *GobCodec) Decode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (c *GobCodec) Name() string {
	return "gob"
}

// JSONCodec implements JSON encoding/decoding.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Name() string {
	return "json"
}

// ProtobufCodec implements Protocol Buffers encoding/decoding for
// proto.Message payloads.
type ProtobufCodec struct{}

func (c *ProtobufCodec) Encode(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("value must implement proto.Message, got %T", v)
	}
	return proto.Marshal(msg)
}

func (c *ProtobufCodec) Decode(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("value must implement proto.Message, got %T", v)
	}
	return proto.Unmarshal(data, msg)
}

func (c *ProtobufCodec) Name() string {
	return "protobuf"
}
