package sonos

// PlayMode is a Sonos playback mode as reported by AVTransport.
type PlayMode string

// Play modes accepted by SetPlayMode.
const (
	PlayModeNormal          PlayMode = "NORMAL"
	PlayModeShuffleNoRepeat PlayMode = "SHUFFLE_NOREPEAT"
	PlayModeShuffle         PlayMode = "SHUFFLE"
	PlayModeRepeatAll       PlayMode = "REPEAT_ALL"
)

// ValidPlayMode reports whether s is a mode the device will accept.
func ValidPlayMode(s string) bool {
	switch PlayMode(s) {
	case PlayModeNormal, PlayModeShuffleNoRepeat, PlayModeShuffle, PlayModeRepeatAll:
		return true
	}
	return false
}

// TrackInfo describes the track currently loaded on a speaker, as returned
// by AVTransport GetPositionInfo.
type TrackInfo struct {
	Title    string
	Artist   string
	Album    string
	URI      string
	Duration string
	// Position is the 1-based position of the track in the queue,
	// or 0 when nothing is queued.
	Position int
}

// TransportInfo is the playback state of a speaker or group.
type TransportInfo struct {
	State  string // PLAYING, PAUSED_PLAYBACK, STOPPED, TRANSITIONING
	Status string
	Speed  string
}

// ZoneInfo is the static information about a speaker.
type ZoneInfo struct {
	ZoneName        string
	SerialNumber    string
	SoftwareVersion string
	HardwareVersion string
	MACAddress      string
	IPAddress       string
}

// Item is a single DIDL-Lite entry: a queued track, or a music library
// result (track, album, artist, playlist).
type Item struct {
	ID       string
	ParentID string
	Title    string
	Creator  string
	Album    string
	Class    string
	URI      string
}
