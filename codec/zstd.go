package codec

import (
	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Zstd wraps another codec with zstd compression.
//
// Useful for large fleets whose instance map makes the shared document
// heavy; small documents gain nothing and pay a header cost.
type Zstd struct {
	Inner Codec
}

// Marshal encodes the value with the inner codec and compresses it.
func (z Zstd) Marshal(v any) ([]byte, error) {
	inner := z.inner()
	data, err := inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(data, nil), nil
}

// Unmarshal decompresses the data and decodes it with the inner codec.
func (z Zstd) Unmarshal(data []byte, v any) error {
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return err
	}
	return z.inner().Unmarshal(raw, v)
}

// Name returns the unique name of the codec (e.g. "zstd+go-json").
func (z Zstd) Name() string { return "zstd+" + z.inner().Name() }

func (z Zstd) inner() Codec {
	if z.Inner == nil {
		return Default
	}
	return z.Inner
}
