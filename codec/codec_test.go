package codec

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type row struct {
	ID     string   `json:"id" cbor:"id" msgpack:"id"`
	Labels []string `json:"labels" cbor:"labels" msgpack:"labels"`
}

// Each decode must hand out fresh slices; mutating one copy cannot leak into
// the bytes or into another decoded copy.
func TestDecodedValuesDoNotShareMemory(t *testing.T) {
	codecs := map[string]Codec[row]{
		"json":    JSON[row]{},
		"cbor":    MustCBOR[row](true),
		"msgpack": Msgpack[row]{},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(row{ID: "c-1", Labels: []string{"pending", "urgent"}})
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			a, err := c.Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			a.Labels[0] = "mutated"

			again, err := c.Decode(b)
			if err != nil {
				t.Fatalf("Decode again: %v", err)
			}
			if again.ID != "c-1" || again.Labels[0] != "pending" {
				t.Fatalf("second decode observed mutation: %+v", again)
			}
		})
	}
}

func TestCBORDeterministicIsStable(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	in := map[string]int{"b": 2, "a": 1, "c": 3}
	first, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i := 0; i < 10; i++ {
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if string(b) != string(first) {
			t.Fatalf("deterministic encoding changed between calls")
		}
	}
}

func TestLimitBoundsBothDirections(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxEncode: 4, MaxDecode: 3}

	if _, err := c.Encode("hello"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Encode over limit: err=%v, want ErrTooLarge", err)
	}
	if _, err := c.Decode([]byte("abcd")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Decode over limit: err=%v, want ErrTooLarge", err)
	}
	got, err := c.Decode([]byte("abc"))
	if err != nil || got != "abc" {
		t.Fatalf("Decode within limit: got=%q err=%v", got, err)
	}

	unbounded := Limit[string]{Inner: String{}}
	if _, err := unbounded.Encode("any length at all"); err != nil {
		t.Fatalf("zero bounds should disable checks: %v", err)
	}
}

func TestProtoRoundTrip(t *testing.T) {
	c := NewProto(func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) })
	b, err := c.Encode(wrapperspb.String("Pending"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.GetValue() != "Pending" {
		t.Fatalf("got %q, want Pending", got.GetValue())
	}
}

func TestBytesCopies(t *testing.T) {
	src := []byte("abc")
	enc, _ := Bytes{}.Encode(src)
	src[0] = 'x'
	dec, _ := Bytes{}.Decode(enc)
	if string(dec) != "abc" {
		t.Fatalf("Encode must copy, got %q", dec)
	}
	dec[1] = 'y'
	if string(enc) != "abc" {
		t.Fatalf("Decode must copy, got %q", enc)
	}
}
