package codec

import "google.golang.org/protobuf/proto"

// Proto serializes protobuf messages. The constructor returns an empty
// message to decode into, e.g. func() *pb.ComplaintPage { return new(pb.ComplaintPage) }.
type Proto[T proto.Message] struct {
	newMsg func() T
}

func NewProto[T proto.Message](ctor func() T) Proto[T] {
	return Proto[T]{newMsg: ctor}
}

func (c Proto[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (c Proto[T]) Decode(b []byte) (T, error) {
	m := c.newMsg()
	err := proto.Unmarshal(b, m)
	return m, err
}
