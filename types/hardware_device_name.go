package types

import (
	"encoding/json"
)

// HardwareDeviceName selects a device of a backend, for example a CUDA
// device ordinal ("0", "1") or a PCI bus ID. Empty is the default one.
type HardwareDeviceName string

func (n HardwareDeviceName) String() string {
	if n == "" {
		return "default"
	}
	return string(n)
}

// Set implements pflag.Value.
func (n *HardwareDeviceName) Set(s string) error {
	*n = HardwareDeviceName(s)
	return nil
}

// Type implements pflag.Value.
func (n *HardwareDeviceName) Type() string {
	return "device"
}

func (n *HardwareDeviceName) UnmarshalYAML(b []byte) error {
	return json.Unmarshal(b, (*string)(n))
}

func (n HardwareDeviceName) MarshalYAML() ([]byte, error) {
	return json.Marshal(string(n))
}
