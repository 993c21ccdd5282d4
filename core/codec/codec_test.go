package codec

import (
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestJSONCodec(t *testing.T) {
	codec := &JSONCodec{}

	type payload struct {
		Name  string
		Value int
	}

	original := &payload{Name: "test", Value: 42}

	data, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	decoded := &payload{}
	if err := codec.Decode(data, decoded); err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if decoded.Name != original.Name || decoded.Value != original.Value {
		t.Errorf("Mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestProtobufCodec(t *testing.T) {
	codec := &ProtobufCodec{}

	original := wrapperspb.String("hello")

	data, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	decoded := &wrapperspb.StringValue{}
	if err := codec.Decode(data, decoded); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if decoded.Value != "hello" {
		t.Errorf("Value = %q, want hello", decoded.Value)
	}

	// Non-proto values are rejected.
	if _, err := codec.Encode(42); err == nil {
		t.Error("Encode of non-proto value should fail")
	}
}

func TestGetCodec(t *testing.T) {
	for _, typ := range []CodecType{CodecJSON, CodecProtobuf} {
		c, err := GetCodec(typ)
		if err != nil || c == nil {
			t.Errorf("GetCodec(%d) = %v, %v", typ, c, err)
		}
	}

	if _, err := GetCodec(0xFF); err != ErrUnsupportedCodec {
		t.Errorf("GetCodec(0xFF) error = %v, want ErrUnsupportedCodec", err)
	}
}
