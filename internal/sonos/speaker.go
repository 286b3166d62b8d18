package sonos

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Speaker is one Sonos ZonePlayer, addressed by IP. All methods issue
// SOAP calls against the device; nothing is cached except the room name
// and the device UID, which are stable for the life of a session.
type Speaker struct {
	IP string

	soap     *soapClient
	roomName string
	uid      string
}

// New returns a speaker handle for the given IP address. No network
// traffic happens until a method is called.
func New(ip string) *Speaker {
	return NewWithTimeout(ip, DefaultRequestTimeout)
}

// NewWithTimeout returns a speaker handle whose SOAP calls are bounded
// by the given per-request timeout.
func NewWithTimeout(ip string, timeout time.Duration) *Speaker {
	return &Speaker{
		IP:   ip,
		soap: newSOAPClient(fmt.Sprintf("http://%s:%d", ip, ControlPort), timeout),
	}
}

// Addr returns the speaker's IP address.
func (s *Speaker) Addr() string {
	return s.IP
}

// RoomName returns the zone name ("Kitchen", "Living Room"). The first
// call hits the device; the name is cached afterwards.
func (s *Speaker) RoomName(ctx context.Context) (string, error) {
	if s.roomName != "" {
		return s.roomName, nil
	}
	resp, err := s.soap.call(ctx, deviceProperties, "GetZoneAttributes")
	if err != nil {
		return "", err
	}
	s.roomName = resp.get("CurrentZoneName")
	return s.roomName, nil
}

// ZoneInfo returns the static device information shown by the info
// command.
func (s *Speaker) ZoneInfo(ctx context.Context) (ZoneInfo, error) {
	name, err := s.RoomName(ctx)
	if err != nil {
		return ZoneInfo{}, err
	}
	resp, err := s.soap.call(ctx, deviceProperties, "GetZoneInfo")
	if err != nil {
		return ZoneInfo{}, err
	}
	return ZoneInfo{
		ZoneName:        name,
		SerialNumber:    resp.get("SerialNumber"),
		SoftwareVersion: resp.get("SoftwareVersion"),
		HardwareVersion: resp.get("HardwareVersion"),
		MACAddress:      resp.get("MACAddress"),
		IPAddress:       resp.get("IPAddress"),
	}, nil
}

// Volume returns the current volume (0..100).
func (s *Speaker) Volume(ctx context.Context) (int, error) {
	resp, err := s.soap.call(ctx, renderingControl, "GetVolume",
		arg{"InstanceID", "0"}, arg{"Channel", "Master"})
	if err != nil {
		return 0, err
	}
	return resp.getInt("CurrentVolume")
}

// SetVolume sets the volume (0..100).
func (s *Speaker) SetVolume(ctx context.Context, volume int) error {
	_, err := s.soap.call(ctx, renderingControl, "SetVolume",
		arg{"InstanceID", "0"}, arg{"Channel", "Master"},
		arg{"DesiredVolume", strconv.Itoa(volume)})
	return err
}

// Bass returns the current bass level (-10..10).
func (s *Speaker) Bass(ctx context.Context) (int, error) {
	resp, err := s.soap.call(ctx, renderingControl, "GetBass", arg{"InstanceID", "0"})
	if err != nil {
		return 0, err
	}
	return resp.getInt("CurrentBass")
}

// SetBass sets the bass level (-10..10).
func (s *Speaker) SetBass(ctx context.Context, bass int) error {
	_, err := s.soap.call(ctx, renderingControl, "SetBass",
		arg{"InstanceID", "0"}, arg{"DesiredBass", strconv.Itoa(bass)})
	return err
}

// Treble returns the current treble level (-10..10).
func (s *Speaker) Treble(ctx context.Context) (int, error) {
	resp, err := s.soap.call(ctx, renderingControl, "GetTreble", arg{"InstanceID", "0"})
	if err != nil {
		return 0, err
	}
	return resp.getInt("CurrentTreble")
}

// SetTreble sets the treble level (-10..10).
func (s *Speaker) SetTreble(ctx context.Context, treble int) error {
	_, err := s.soap.call(ctx, renderingControl, "SetTreble",
		arg{"InstanceID", "0"}, arg{"DesiredTreble", strconv.Itoa(treble)})
	return err
}

// Play starts or resumes playback.
func (s *Speaker) Play(ctx context.Context) error {
	_, err := s.soap.call(ctx, avTransport, "Play",
		arg{"InstanceID", "0"}, arg{"Speed", "1"})
	return err
}

// Pause pauses playback.
func (s *Speaker) Pause(ctx context.Context) error {
	_, err := s.soap.call(ctx, avTransport, "Pause", arg{"InstanceID", "0"})
	return err
}

// Stop stops playback.
func (s *Speaker) Stop(ctx context.Context) error {
	_, err := s.soap.call(ctx, avTransport, "Stop", arg{"InstanceID", "0"})
	return err
}

// Next seeks to the next track. Seeking past the end of the queue
// returns ErrNoSuchTrack.
func (s *Speaker) Next(ctx context.Context) error {
	_, err := s.soap.call(ctx, avTransport, "Next", arg{"InstanceID", "0"})
	if upnpCode(err) == upnpErrIllegalSeek {
		return ErrNoSuchTrack
	}
	return err
}

// Previous seeks to the previous track. Seeking before the start of the
// queue returns ErrNoSuchTrack.
func (s *Speaker) Previous(ctx context.Context) error {
	_, err := s.soap.call(ctx, avTransport, "Previous", arg{"InstanceID", "0"})
	if upnpCode(err) == upnpErrIllegalSeek {
		return ErrNoSuchTrack
	}
	return err
}

// PlayFromQueue seeks to the 0-based queue index and starts playback.
func (s *Speaker) PlayFromQueue(ctx context.Context, index int) error {
	_, err := s.soap.call(ctx, avTransport, "Seek",
		arg{"InstanceID", "0"}, arg{"Unit", "TRACK_NR"},
		arg{"Target", strconv.Itoa(index + 1)})
	if err != nil {
		if upnpCode(err) == upnpErrIllegalSeek {
			return ErrNoSuchTrack
		}
		return err
	}
	return s.Play(ctx)
}

// PlayMode returns the current play mode.
func (s *Speaker) PlayMode(ctx context.Context) (PlayMode, error) {
	resp, err := s.soap.call(ctx, avTransport, "GetTransportSettings", arg{"InstanceID", "0"})
	if err != nil {
		return "", err
	}
	return PlayMode(resp.get("PlayMode")), nil
}

// SetPlayMode sets the play mode.
func (s *Speaker) SetPlayMode(ctx context.Context, mode PlayMode) error {
	_, err := s.soap.call(ctx, avTransport, "SetPlayMode",
		arg{"InstanceID", "0"}, arg{"NewPlayMode", string(mode)})
	return err
}

// TransportInfo returns the playback state of the speaker.
func (s *Speaker) TransportInfo(ctx context.Context) (TransportInfo, error) {
	resp, err := s.soap.call(ctx, avTransport, "GetTransportInfo", arg{"InstanceID", "0"})
	if err != nil {
		return TransportInfo{}, err
	}
	return TransportInfo{
		State:  resp.get("CurrentTransportState"),
		Status: resp.get("CurrentTransportStatus"),
		Speed:  resp.get("CurrentSpeed"),
	}, nil
}

// CurrentTrack returns information about the track currently loaded on
// the speaker.
func (s *Speaker) CurrentTrack(ctx context.Context) (TrackInfo, error) {
	resp, err := s.soap.call(ctx, avTransport, "GetPositionInfo",
		arg{"InstanceID", "0"}, arg{"Channel", "Master"})
	if err != nil {
		return TrackInfo{}, err
	}
	info := TrackInfo{
		URI:      resp.get("TrackURI"),
		Duration: resp.get("TrackDuration"),
	}
	if pos, err := resp.getInt("Track"); err == nil {
		info.Position = pos
	}
	if meta, ok := parseDIDLTrack(resp.get("TrackMetaData")); ok {
		info.Title = meta.Title
		info.Artist = meta.Creator
		info.Album = meta.Album
	}
	return info, nil
}

// Queue returns the playback queue in order.
func (s *Speaker) Queue(ctx context.Context) ([]Item, error) {
	return s.browse(ctx, "Q:0")
}

// AddToQueue appends a library item (track, album, artist or playlist)
// to the end of the queue.
func (s *Speaker) AddToQueue(ctx context.Context, it Item) error {
	_, err := s.soap.call(ctx, avTransport, "AddURIToQueue",
		arg{"InstanceID", "0"},
		arg{"EnqueuedURI", it.URI},
		arg{"EnqueuedURIMetaData", buildMetadata(it)},
		arg{"DesiredFirstTrackNumberEnqueued", "0"},
		arg{"EnqueueAsNext", "0"})
	return err
}

// RemoveFromQueue removes the track at the 0-based queue index.
func (s *Speaker) RemoveFromQueue(ctx context.Context, index int) error {
	_, err := s.soap.call(ctx, avTransport, "RemoveTrackFromQueue",
		arg{"InstanceID", "0"},
		arg{"ObjectID", fmt.Sprintf("Q:0/%d", index+1)},
		arg{"UpdateID", "0"})
	return err
}

// ClearQueue removes every track from the queue.
func (s *Speaker) ClearQueue(ctx context.Context) error {
	_, err := s.soap.call(ctx, avTransport, "RemoveAllTracksFromQueue", arg{"InstanceID", "0"})
	return err
}

// UID returns the device UID (RINCON_...), resolved from the zone group
// topology and cached.
func (s *Speaker) UID(ctx context.Context) (string, error) {
	if s.uid != "" {
		return s.uid, nil
	}
	member, _, err := s.groupMember(ctx)
	if err != nil {
		return "", err
	}
	s.uid = member.UUID
	return s.uid, nil
}

// IsCoordinator reports whether this speaker coordinates its group.
// Ungrouped speakers coordinate themselves.
func (s *Speaker) IsCoordinator(ctx context.Context) (bool, error) {
	member, group, err := s.groupMember(ctx)
	if err != nil {
		return false, err
	}
	return member.UUID == group.Coordinator, nil
}

// JoinGroup makes this speaker a member of the group coordinated by the
// speaker with the given UID.
func (s *Speaker) JoinGroup(ctx context.Context, coordinatorUID string) error {
	_, err := s.soap.call(ctx, avTransport, "SetAVTransportURI",
		arg{"InstanceID", "0"},
		arg{"CurrentURI", "x-rincon:" + coordinatorUID},
		arg{"CurrentURIMetaData", ""})
	return err
}

func (s *Speaker) browse(ctx context.Context, objectID string) ([]Item, error) {
	resp, err := s.soap.call(ctx, contentDirectory, "Browse",
		arg{"ObjectID", objectID},
		arg{"BrowseFlag", "BrowseDirectChildren"},
		arg{"Filter", "*"},
		arg{"StartingIndex", "0"},
		arg{"RequestedCount", "100000"},
		arg{"SortCriteria", ""})
	if err != nil {
		return nil, err
	}
	return parseDIDL(resp.get("Result"))
}

// zone group topology

type zoneGroup struct {
	Coordinator string            `xml:"Coordinator,attr"`
	Members     []zoneGroupMember `xml:"ZoneGroupMember"`
}

type zoneGroupMember struct {
	UUID     string `xml:"UUID,attr"`
	Location string `xml:"Location,attr"`
	ZoneName string `xml:"ZoneName,attr"`
}

// parseZoneGroupState handles both topology document shapes: recent
// firmware wraps the groups in <ZoneGroupState><ZoneGroups>, older
// firmware has <ZoneGroups> as the root.
func parseZoneGroupState(doc string) ([]zoneGroup, error) {
	var wrapped struct {
		XMLName xml.Name    `xml:"ZoneGroupState"`
		Groups  []zoneGroup `xml:"ZoneGroups>ZoneGroup"`
	}
	if err := xml.Unmarshal([]byte(doc), &wrapped); err == nil && len(wrapped.Groups) > 0 {
		return wrapped.Groups, nil
	}
	var bare struct {
		XMLName xml.Name    `xml:"ZoneGroups"`
		Groups  []zoneGroup `xml:"ZoneGroup"`
	}
	if err := xml.Unmarshal([]byte(doc), &bare); err != nil {
		return nil, fmt.Errorf("parse zone group state: %w", err)
	}
	return bare.Groups, nil
}

// groupMember finds this speaker's entry in the zone group topology.
func (s *Speaker) groupMember(ctx context.Context) (zoneGroupMember, zoneGroup, error) {
	resp, err := s.soap.call(ctx, zoneGroupTopology, "GetZoneGroupState")
	if err != nil {
		return zoneGroupMember{}, zoneGroup{}, err
	}
	groups, err := parseZoneGroupState(resp.get("ZoneGroupState"))
	if err != nil {
		return zoneGroupMember{}, zoneGroup{}, err
	}
	needle := "//" + s.IP + ":"
	for _, group := range groups {
		for _, member := range group.Members {
			if strings.Contains(member.Location, needle) {
				return member, group, nil
			}
		}
	}
	return zoneGroupMember{}, zoneGroup{}, fmt.Errorf("speaker %s not present in zone group topology", s.IP)
}
