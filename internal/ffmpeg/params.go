package ffmpeg

// Params represents all parameters needed to generate a push command.
// Zero values mean "not set" unless noted.
type Params struct {
	// Input
	Source string // local path or directly playable URL
	Loop   bool   // loop the input forever (local files only)

	// Video
	Encoder     string // libx264 when empty
	Preset      string // veryfast when empty
	BitrateKbps int    // target bitrate; maxrate matches, bufsize is twice
	Width       int
	Height      int
	FPS         int
	GOP         int // keyframe interval in frames

	// Audio
	AudioBitrateKbps int // 128 when 0
	SampleRate       int // 44100 when 0

	// Output
	OutputURL string // rtmp:// or rtmps:// ingest URL, pushed as flv

	// Behavior Options
	Options []OptionType
}
