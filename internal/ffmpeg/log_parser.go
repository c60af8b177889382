package ffmpeg

import "strings"

// Line is one transcoder output line split by its -loglevel level+info
// prefixes: "[level] text" or "[component @ 0x...] [level] text".
type Line struct {
	Level     string // error, warning, info or debug
	Component string // e.g. "flv @ 0x55d0c0", empty for global messages
	Text      string
}

// Message is the line without its level prefix. The component is kept
// since it tells which muxer or protocol complained.
func (l Line) Message() string {
	if l.Component == "" {
		return l.Text
	}
	return "[" + l.Component + "] " + l.Text
}

// ParseLine splits raw into level, component and text. Lines without a
// recognised level are info.
func ParseLine(raw string) Line {
	line := Line{Level: "info", Text: raw}

	tag, rest, ok := cutBracket(raw)
	if !ok {
		return line
	}
	if level, known := sessionLevel(tag); known {
		line.Level, line.Text = level, rest
		return line
	}

	next, text, ok := cutBracket(rest)
	if !ok {
		return line
	}
	if level, known := sessionLevel(next); known {
		line.Level, line.Component, line.Text = level, tag, text
	}
	return line
}

// ParseLogLevel adapts ParseLine to process.LogParser.
func ParseLogLevel(raw string) (level, msg string) {
	l := ParseLine(raw)
	return l.Level, l.Message()
}

// cutBracket splits "[tag] rest".
func cutBracket(s string) (tag, rest string, ok bool) {
	if len(s) < 3 || s[0] != '[' {
		return "", s, false
	}
	end := strings.Index(s, "] ")
	if end == -1 {
		return "", s, false
	}
	return s[1:end], s[end+2:], true
}

// sessionLevel folds ffmpeg's nine levels onto the session log levels.
func sessionLevel(s string) (string, bool) {
	switch s {
	case "quiet", "panic", "fatal", "error":
		return "error", true
	case "warning":
		return "warning", true
	case "info":
		return "info", true
	case "verbose", "debug", "trace":
		return "debug", true
	}
	return "", false
}
