package types

import (
	"fmt"
)

type Resolution struct {
	Width  uint32 `yaml:"width"  json:"width"`
	Height uint32 `yaml:"height" json:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

func (r Resolution) Pixels() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

func (r *Resolution) Parse(s string) error {
	var w, h uint32
	_, err := fmt.Sscanf(s, "%dx%d", &w, &h)
	if err != nil {
		return fmt.Errorf("unable to parse resolution '%s': %w", s, err)
	}
	r.Width, r.Height = w, h
	return nil
}

// Set implements pflag.Value.
func (r *Resolution) Set(s string) error {
	return r.Parse(s)
}

// Type implements pflag.Value.
func (r *Resolution) Type() string {
	return "resolution"
}
