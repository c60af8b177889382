package models

import (
	"time"

	"github.com/smazurov/relaycast/internal/ffmpeg"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Profile options
type ProfileOptionsData struct {
	Bitrates      []int               `json:"bitrates" doc:"Legal bitrates in kbit/s"`
	Resolutions   []string            `json:"resolutions" doc:"Legal resolutions"`
	FPS           []int               `json:"fps" doc:"Legal frame rates"`
	Orientations  []string            `json:"orientations" doc:"Legal orientations"`
	Platforms     []string            `json:"platforms" doc:"Supported platforms"`
	FFmpegOptions []ffmpeg.OptionInfo `json:"ffmpeg_options" doc:"FFmpeg behavior options the server may apply"`
}

type ProfileOptionsResponse struct {
	Body ProfileOptionsData
}

// Session models
type ProfileData struct {
	BitrateKbps int    `json:"bitrate_kbps" example:"2500" doc:"Video bitrate in kbit/s"`
	Resolution  string `json:"resolution" example:"720p" doc:"Output resolution"`
	FPS         int    `json:"fps" example:"30" doc:"Output frame rate"`
	Orientation string `json:"orientation" example:"landscape" doc:"Output orientation"`
	Loop        bool   `json:"loop" example:"true" doc:"Loop local file sources"`
}

type ProgressData struct {
	Frame       int64   `json:"frame" example:"2500" doc:"Frames encoded"`
	FPS         float64 `json:"fps" example:"30" doc:"Current encoding FPS"`
	BitrateKbps float64 `json:"bitrate_kbps" example:"2512.3" doc:"Current output bitrate in kbit/s"`
	Speed       float64 `json:"speed" example:"1.01" doc:"Processing speed multiplier"`
}

type SessionData struct {
	ID         string        `json:"id" example:"7f9c2ba4-e88f-4c3e-9a6b-1f2d3c4b5a69" doc:"Session identifier"`
	Title      string        `json:"title" example:"Sunday service" doc:"Session title"`
	Source     string        `json:"source" example:"/srv/videos/service.mp4" doc:"Local file path or remote URL"`
	HasKey     bool          `json:"has_key" example:"true" doc:"Whether a destination key is configured"`
	Platform   string        `json:"platform" example:"youtube" doc:"Destination platform"`
	Profile    ProfileData   `json:"profile" doc:"Output profile"`
	Status     string        `json:"status" example:"live" doc:"Lifecycle status"`
	PID        int           `json:"pid,omitempty" example:"4242" doc:"Child process id while running"`
	HasProcess bool          `json:"has_process" example:"true" doc:"Whether a child process is owned"`
	LastError  string        `json:"last_error,omitempty" example:"process exited with code 1" doc:"Most recent failure"`
	Restarts   int           `json:"restarts" example:"0" doc:"Automatic restarts since the last manual start"`
	CreatedAt  time.Time     `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time     `json:"updated_at" doc:"Last configuration change"`
	StartedAt  *time.Time    `json:"started_at,omitempty" doc:"When the current run was started"`
	Progress   *ProgressData `json:"progress,omitempty" doc:"Latest ffmpeg progress while live"`
}

type SessionResponse struct {
	Body SessionData
}

type SessionListData struct {
	Sessions []SessionData `json:"sessions" doc:"All sessions in creation order"`
	Count    int           `json:"count" example:"2" doc:"Number of sessions"`
}

type SessionListResponse struct {
	Body SessionListData
}

type SessionCreateRequest struct {
	Body struct {
		Title string `json:"title" maxLength:"200" example:"Sunday service" doc:"Session title"`
	}
}

type SessionUpdateData struct {
	Title          *string `json:"title,omitempty" maxLength:"200" example:"Sunday service" doc:"Session title"`
	Source         *string `json:"source,omitempty" example:"https://www.youtube.com/watch?v=abc" doc:"Local file path or remote URL"`
	DestinationKey *string `json:"destination_key,omitempty" example:"abcd-efgh-ijkl" doc:"Platform stream key, write-only"`
	Platform       *string `json:"platform,omitempty" enum:"youtube,facebook" doc:"Destination platform"`
	BitrateKbps    *int    `json:"bitrate_kbps,omitempty" enum:"1500,2500,3000,4000,5000" doc:"Video bitrate in kbit/s"`
	Resolution     *string `json:"resolution,omitempty" enum:"480p,720p,1080p" doc:"Output resolution"`
	FPS            *int    `json:"fps,omitempty" enum:"24,25,30,50,60" doc:"Output frame rate"`
	Orientation    *string `json:"orientation,omitempty" enum:"landscape,vertical" doc:"Output orientation"`
	Loop           *bool   `json:"loop,omitempty" doc:"Loop local file sources"`
}

type SessionUpdateRequest struct {
	SessionID string `path:"session_id" doc:"Session identifier"`
	Body      SessionUpdateData
}

type SessionIDInput struct {
	SessionID string `path:"session_id" example:"7f9c2ba4-e88f-4c3e-9a6b-1f2d3c4b5a69" doc:"Session identifier"`
}

// Log models
type LogLineData struct {
	Time  time.Time `json:"time" doc:"When the line was recorded"`
	Level string    `json:"level" example:"info" doc:"Log level"`
	Text  string    `json:"text" example:"process started (pid 4242)" doc:"Line text without timestamp"`
	Line  string    `json:"line" example:"2025-01-27 10:30:00 process started (pid 4242)" doc:"Timestamped line"`
}

type SessionLogsData struct {
	SessionID string        `json:"session_id" doc:"Session identifier"`
	Lines     []LogLineData `json:"lines" doc:"Log lines, oldest first"`
	Count     int           `json:"count" example:"50" doc:"Number of lines"`
}

type SessionLogsResponse struct {
	Body SessionLogsData
}

// FFmpeg command models
type FFmpegCommandData struct {
	SessionID string   `json:"session_id" doc:"Session identifier"`
	Command   string   `json:"command" example:"ffmpeg -hide_banner -re -i a.mp4 ... -f flv rtmp://a.rtmp.youtube.com/live2/[REDACTED]" doc:"Shell-quoted command with the key redacted"`
	Args      []string `json:"args" doc:"Argument vector with the key redacted"`
}

type FFmpegCommandResponse struct {
	Body FFmpegCommandData
}
