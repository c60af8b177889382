package sessions

import (
	"context"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

// Session statuses.
const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusLive     Status = "live"
	StatusError    Status = "error"
)

// Active reports whether a child process is owned in this status.
func (s Status) Active() bool {
	return s == StatusStarting || s == StatusLive
}

// Platform selects the ingest endpoint.
type Platform string

// Supported platforms.
const (
	PlatformYouTube  Platform = "youtube"
	PlatformFacebook Platform = "facebook"
)

// Resolution is an output height preset.
type Resolution string

// Supported resolutions.
const (
	Resolution480p  Resolution = "480p"
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
)

// Orientation of the output frame.
type Orientation string

// Supported orientations.
const (
	OrientationLandscape Orientation = "landscape"
	OrientationVertical  Orientation = "vertical"
)

// Legal profile values, in display order.
var (
	BitrateOptions     = []int{1500, 2500, 3000, 4000, 5000}
	ResolutionOptions  = []Resolution{Resolution480p, Resolution720p, Resolution1080p}
	FPSOptions         = []int{24, 25, 30, 50, 60}
	OrientationOptions = []Orientation{OrientationLandscape, OrientationVertical}
	PlatformOptions    = []Platform{PlatformYouTube, PlatformFacebook}
)

var landscapeSizes = map[Resolution][2]int{
	Resolution480p:  {854, 480},
	Resolution720p:  {1280, 720},
	Resolution1080p: {1920, 1080},
}

// Profile is the encoding profile of a session.
type Profile struct {
	BitrateKbps int         `toml:"bitrate_kbps" json:"bitrate_kbps"`
	Resolution  Resolution  `toml:"resolution" json:"resolution"`
	FPS         int         `toml:"fps" json:"fps"`
	Orientation Orientation `toml:"orientation" json:"orientation"`
	Loop        bool        `toml:"loop" json:"loop"`
}

// DefaultProfile returns the profile new sessions start with.
func DefaultProfile() Profile {
	return Profile{
		BitrateKbps: 2500,
		Resolution:  Resolution720p,
		FPS:         30,
		Orientation: OrientationLandscape,
		Loop:        true,
	}
}

// Size returns the output width and height; vertical swaps them.
func (p Profile) Size() (width, height int) {
	wh, ok := landscapeSizes[p.Resolution]
	if !ok {
		return 0, 0
	}
	if p.Orientation == OrientationVertical {
		return wh[1], wh[0]
	}
	return wh[0], wh[1]
}

// KeyframeInterval is two seconds of frames.
func (p Profile) KeyframeInterval() int {
	return 2 * p.FPS
}

// Spec is the persisted configuration of a session.
type Spec struct {
	ID             string    `toml:"id"`
	Title          string    `toml:"title"`
	Source         string    `toml:"source"`
	DestinationKey string    `toml:"destination_key"`
	Platform       Platform  `toml:"platform"`
	Profile        Profile   `toml:"profile"`
	CreatedAt      time.Time `toml:"created_at"`
	UpdatedAt      time.Time `toml:"updated_at"`
}

// Session is a read-only snapshot of a session.
type Session struct {
	ID             string
	Title          string
	Source         string
	DestinationKey string
	Platform       Platform
	Profile        Profile
	Status         Status
	PID            int
	HasProcess     bool
	LastError      string
	Restarts       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      time.Time
}

// HasKey reports whether a destination key is configured.
func (s Session) HasKey() bool {
	return s.DestinationKey != ""
}

// LogLine is one entry of a session log.
type LogLine struct {
	Time  time.Time
	Level string
	Text  string
}

// LogTimeFormat is the timestamp prefix of rendered log lines.
const LogTimeFormat = "2006-01-02 15:04:05"

// String renders the line with its timestamp prefix.
func (l LogLine) String() string {
	return l.Time.Format(LogTimeFormat) + " " + l.Text
}

// ConfigUpdate carries optional field changes; nil fields are left as is.
type ConfigUpdate struct {
	Title          *string
	Source         *string
	DestinationKey *string
	Platform       *Platform
	BitrateKbps    *int
	Resolution     *Resolution
	FPS            *int
	Orientation    *Orientation
	Loop           *bool
}

// Store persists session specs in creation order.
type Store interface {
	Load() ([]Spec, error)
	Save(specs []Spec) error
}

// Controller is the control surface consumed by presentation layers.
type Controller interface {
	Create(title string) Session
	Update(id string, update ConfigUpdate) (Session, error)
	Get(id string) (Session, error)
	List() []Session
	Logs(id string) ([]LogLine, error)
	Delete(id string) error
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string) error
	Command(id string) ([]string, error)
}
