// Package types provides the value types shared by the session, the drivers and the CLI.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Codec int

const (
	CodecUndefined = Codec(iota)
	CodecAVC
	CodecHEVC
	endOfCodec
)

func (c Codec) String() string {
	switch c {
	case CodecUndefined:
		return "undefined"
	case CodecAVC:
		return "h264"
	case CodecHEVC:
		return "hevc"
	}
	return fmt.Sprintf("unknown_%d", int(c))
}

// Codecs lists every supported codec.
func Codecs() []Codec {
	result := make([]Codec, 0, endOfCodec-1)
	for c := CodecUndefined + 1; c < endOfCodec; c++ {
		result = append(result, c)
	}
	return result
}

func (c Codec) IsValid() bool {
	return c > CodecUndefined && c < endOfCodec
}

// FileExtension returns the conventional extension of a raw elementary
// stream of this codec.
func (c Codec) FileExtension() string {
	switch c {
	case CodecAVC:
		return ".h264"
	case CodecHEVC:
		return ".h265"
	}
	return ".bin"
}

func CodecFromString(s string) (Codec, error) {
	switch strings.Trim(strings.ToLower(s), " \"\n\r\t") {
	case "h264", "avc", "h.264":
		return CodecAVC, nil
	case "hevc", "h265", "h.265":
		return CodecHEVC, nil
	}
	return CodecUndefined, fmt.Errorf("unknown codec: '%s'", s)
}

// Set implements pflag.Value.
func (c *Codec) Set(s string) error {
	v, err := CodecFromString(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Type implements pflag.Value.
func (c *Codec) Type() string {
	return "codec"
}

func (c Codec) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Codec) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unable to unmarshal Codec from JSON '%s': %w", b, err)
	}
	return c.Set(s)
}
