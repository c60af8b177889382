package ffmpeg

import "slices"

// OptionType represents a strongly typed ffmpeg behavior option.
type OptionType string

// ffmpeg option constants.
const (
	// OptionNativeRate reads the input at its native frame rate (-re).
	OptionNativeRate OptionType = "native_rate"
	// OptionReconnect retries dropped HTTP inputs.
	OptionReconnect OptionType = "reconnect"
	// OptionGeneratePTS regenerates missing timestamps.
	OptionGeneratePTS OptionType = "genpts"
	// OptionLowLatency trades compression for encoder latency.
	OptionLowLatency OptionType = "low_latency"
)

// OptionInfo describes an option for listings.
type OptionInfo struct {
	Key         OptionType `json:"key"`
	Description string     `json:"description"`
}

// AvailableOptions lists every supported option.
func AvailableOptions() []OptionInfo {
	return []OptionInfo{
		{OptionNativeRate, "Read input at native frame rate"},
		{OptionReconnect, "Reconnect dropped HTTP inputs"},
		{OptionGeneratePTS, "Generate missing presentation timestamps"},
		{OptionLowLatency, "Tune the encoder for low latency"},
	}
}

// ParseOption validates an option key.
func ParseOption(s string) (OptionType, bool) {
	for _, o := range AvailableOptions() {
		if string(o.Key) == s {
			return o.Key, true
		}
	}
	return "", false
}

// inputArgs returns the flags that must precede -i.
func inputArgs(opts []OptionType) []string {
	var args []string
	if slices.Contains(opts, OptionNativeRate) {
		args = append(args, "-re")
	}
	if slices.Contains(opts, OptionReconnect) {
		args = append(args, "-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5")
	}
	if slices.Contains(opts, OptionGeneratePTS) {
		args = append(args, "-fflags", "+genpts")
	}
	return args
}
