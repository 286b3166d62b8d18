package sonos

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeaker_Volume(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(renderingControl.serviceType, "GetVolume", "<CurrentVolume>37</CurrentVolume>")
	sp := srv.testSpeaker("192.168.1.5")

	volume, err := sp.Volume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 37, volume)

	srv.respond(renderingControl.serviceType, "SetVolume", "")
	require.NoError(t, sp.SetVolume(context.Background(), 42))
	assert.Contains(t, srv.lastBody, "<DesiredVolume>42</DesiredVolume>")
	assert.Contains(t, srv.lastBody, "<Channel>Master</Channel>")
}

func TestSpeaker_BassTreble(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(renderingControl.serviceType, "GetBass", "<CurrentBass>-3</CurrentBass>")
	sp := srv.testSpeaker("192.168.1.5")

	bass, err := sp.Bass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -3, bass)

	srv.respond(renderingControl.serviceType, "SetTreble", "")
	require.NoError(t, sp.SetTreble(context.Background(), 5))
	assert.Contains(t, srv.lastBody, "<DesiredTreble>5</DesiredTreble>")
}

func TestSpeaker_RoomNameCached(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(deviceProperties.serviceType, "GetZoneAttributes",
		"<CurrentZoneName>Kitchen</CurrentZoneName>")
	sp := srv.testSpeaker("192.168.1.5")

	name, err := sp.RoomName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", name)

	// A second call must not hit the device again.
	srv.respond(deviceProperties.serviceType, "GetZoneAttributes",
		"<CurrentZoneName>Renamed</CurrentZoneName>")
	srv.lastAction = ""
	name, err = sp.RoomName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", name)
	assert.Empty(t, srv.lastAction)
}

func TestSpeaker_NextIllegalSeek(t *testing.T) {
	srv := newSOAPServer(t)
	srv.fail(711)
	sp := srv.testSpeaker("192.168.1.5")

	err := sp.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoSuchTrack)

	err = sp.Previous(context.Background())
	assert.ErrorIs(t, err, ErrNoSuchTrack)
}

func TestSpeaker_NextOtherFault(t *testing.T) {
	srv := newSOAPServer(t)
	srv.fail(402)
	sp := srv.testSpeaker("192.168.1.5")

	err := sp.Next(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSuchTrack)
	assert.Equal(t, 402, upnpCode(err))
}

func TestSpeaker_PlayFromQueue(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(avTransport.serviceType, "Seek", "")
	srv.respond(avTransport.serviceType, "Play", "")
	sp := srv.testSpeaker("192.168.1.5")

	// Index 3 is 0-based, the device counts from 1.
	require.NoError(t, sp.PlayFromQueue(context.Background(), 3))

	require.Len(t, srv.bodies, 2)
	assert.Contains(t, srv.bodies[0], "<Unit>TRACK_NR</Unit>")
	assert.Contains(t, srv.bodies[0], "<Target>4</Target>")
	assert.Contains(t, srv.bodies[1], "<Speed>1</Speed>")
	assert.Equal(t, `"urn:schemas-upnp-org:service:AVTransport:1#Play"`, srv.lastAction)
}

func TestSpeaker_CurrentTrack(t *testing.T) {
	escaped := strings.NewReplacer("<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(queueDIDL)
	srv := newSOAPServer(t)
	srv.respond(avTransport.serviceType, "GetPositionInfo",
		"<Track>1</Track>"+
			"<TrackDuration>0:08:41</TrackDuration>"+
			"<TrackMetaData>"+escaped+"</TrackMetaData>"+
			"<TrackURI>x-file-cifs://nas/music/purple_rain.flac</TrackURI>")
	sp := srv.testSpeaker("192.168.1.5")

	track, err := sp.CurrentTrack(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Purple Rain", track.Title)
	assert.Equal(t, "Prince", track.Artist)
	assert.Equal(t, "Purple Rain", track.Album)
	assert.Equal(t, 1, track.Position)
	assert.Equal(t, "0:08:41", track.Duration)
	assert.Equal(t, "x-file-cifs://nas/music/purple_rain.flac", track.URI)
}

func TestSpeaker_Queue(t *testing.T) {
	escaped := strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(queueDIDL)
	srv := newSOAPServer(t)
	srv.respond(contentDirectory.serviceType, "Browse",
		"<Result>"+escaped+"</Result><NumberReturned>2</NumberReturned><TotalMatches>2</TotalMatches>")
	sp := srv.testSpeaker("192.168.1.5")

	queue, err := sp.Queue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "Purple Rain", queue[0].Title)
	assert.Equal(t, "Kiss", queue[1].Title)
	assert.Contains(t, srv.lastBody, "<ObjectID>Q:0</ObjectID>")
	assert.Contains(t, srv.lastBody, "<BrowseFlag>BrowseDirectChildren</BrowseFlag>")
}

func TestSpeaker_SearchLibrary(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(contentDirectory.serviceType, "Browse", "<Result></Result>")
	sp := srv.testSpeaker("192.168.1.5")

	_, err := sp.SearchLibrary(context.Background(), CategoryTracks, "purple rain")
	require.NoError(t, err)
	assert.Contains(t, srv.lastBody, "<ObjectID>A:TRACKS:purple rain</ObjectID>")

	_, err = sp.SearchLibrary(context.Background(), CategorySonosPlaylists, "party")
	require.NoError(t, err)
	assert.Contains(t, srv.lastBody, "<ObjectID>SQ:party</ObjectID>")

	_, err = sp.SearchLibrary(context.Background(), CategoryAlbums, "")
	require.NoError(t, err)
	assert.Contains(t, srv.lastBody, "<ObjectID>A:ALBUM</ObjectID>")
}

func TestSpeaker_AddToQueue(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(avTransport.serviceType, "AddURIToQueue", "<FirstTrackNumberEnqueued>3</FirstTrackNumberEnqueued>")
	sp := srv.testSpeaker("192.168.1.5")

	err := sp.AddToQueue(context.Background(), Item{
		ID:    "S://nas/music/kiss.flac",
		Title: "Kiss",
		Class: "object.item.audioItem.musicTrack",
		URI:   "x-file-cifs://nas/music/kiss.flac",
	})
	require.NoError(t, err)
	assert.Contains(t, srv.lastBody, "<EnqueuedURI>x-file-cifs://nas/music/kiss.flac</EnqueuedURI>")
	assert.Contains(t, srv.lastBody, "RINCON_AssociatedZPUDN")
}

func TestSpeaker_RemoveFromQueue(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(avTransport.serviceType, "RemoveTrackFromQueue", "")
	sp := srv.testSpeaker("192.168.1.5")

	require.NoError(t, sp.RemoveFromQueue(context.Background(), 4))
	assert.Contains(t, srv.lastBody, "<ObjectID>Q:0/5</ObjectID>")
}

const zoneGroupStateDoc = `<ZoneGroupState><ZoneGroups>
  <ZoneGroup Coordinator="RINCON_KITCHEN1400" ID="RINCON_KITCHEN1400:42">
    <ZoneGroupMember UUID="RINCON_KITCHEN1400" Location="http://192.168.1.5:1400/xml/device_description.xml" ZoneName="Kitchen"/>
    <ZoneGroupMember UUID="RINCON_BEDROOM1400" Location="http://192.168.1.6:1400/xml/device_description.xml" ZoneName="Bedroom"/>
  </ZoneGroup>
  <ZoneGroup Coordinator="RINCON_BATH1400" ID="RINCON_BATH1400:7">
    <ZoneGroupMember UUID="RINCON_BATH1400" Location="http://192.168.1.7:1400/xml/device_description.xml" ZoneName="Bath"/>
  </ZoneGroup>
</ZoneGroups></ZoneGroupState>`

func TestParseZoneGroupState(t *testing.T) {
	groups, err := parseZoneGroupState(zoneGroupStateDoc)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "RINCON_KITCHEN1400", groups[0].Coordinator)
	require.Len(t, groups[0].Members, 2)
	assert.Equal(t, "Bedroom", groups[0].Members[1].ZoneName)
}

func TestParseZoneGroupState_BareRoot(t *testing.T) {
	bare := strings.TrimSuffix(strings.TrimPrefix(zoneGroupStateDoc, "<ZoneGroupState>"), "</ZoneGroupState>")
	groups, err := parseZoneGroupState(bare)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func zoneGroupResponse() string {
	escaped := strings.NewReplacer("<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(zoneGroupStateDoc)
	return "<ZoneGroupState>" + escaped + "</ZoneGroupState>"
}

func TestSpeaker_IsCoordinator(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(zoneGroupTopology.serviceType, "GetZoneGroupState", zoneGroupResponse())

	coordinator, err := srv.testSpeaker("192.168.1.5").IsCoordinator(context.Background())
	require.NoError(t, err)
	assert.True(t, coordinator)

	coordinator, err = srv.testSpeaker("192.168.1.6").IsCoordinator(context.Background())
	require.NoError(t, err)
	assert.False(t, coordinator)
}

func TestSpeaker_UID(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(zoneGroupTopology.serviceType, "GetZoneGroupState", zoneGroupResponse())
	sp := srv.testSpeaker("192.168.1.6")

	uid, err := sp.UID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RINCON_BEDROOM1400", uid)

	// Cached afterwards.
	srv.lastAction = ""
	uid, err = sp.UID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RINCON_BEDROOM1400", uid)
	assert.Empty(t, srv.lastAction)
}

func TestSpeaker_UnknownInTopology(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(zoneGroupTopology.serviceType, "GetZoneGroupState", zoneGroupResponse())

	_, err := srv.testSpeaker("10.0.0.99").UID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present in zone group topology")
}

func TestSpeaker_JoinGroup(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(avTransport.serviceType, "SetAVTransportURI", "")
	sp := srv.testSpeaker("192.168.1.6")

	require.NoError(t, sp.JoinGroup(context.Background(), "RINCON_KITCHEN1400"))
	assert.Contains(t, srv.lastBody, "<CurrentURI>x-rincon:RINCON_KITCHEN1400</CurrentURI>")
}

func TestSpeaker_ZoneInfo(t *testing.T) {
	srv := newSOAPServer(t)
	srv.respond(deviceProperties.serviceType, "GetZoneAttributes",
		"<CurrentZoneName>Kitchen</CurrentZoneName>")
	sp := srv.testSpeaker("192.168.1.5")

	// Prime the room name so GetZoneInfo is the only remaining call.
	_, err := sp.RoomName(context.Background())
	require.NoError(t, err)

	srv.respond(deviceProperties.serviceType, "GetZoneInfo",
		"<SerialNumber>00-0E-58-AA-00-14:8</SerialNumber>"+
			"<SoftwareVersion>70.4-35050</SoftwareVersion>"+
			"<HardwareVersion>1.16.4.1-2.1</HardwareVersion>"+
			"<MACAddress>00:0E:58:AA:00:14</MACAddress>"+
			"<IPAddress>192.168.1.5</IPAddress>")

	info, err := sp.ZoneInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ZoneInfo{
		ZoneName:        "Kitchen",
		SerialNumber:    "00-0E-58-AA-00-14:8",
		SoftwareVersion: "70.4-35050",
		HardwareVersion: "1.16.4.1-2.1",
		MACAddress:      "00:0E:58:AA:00:14",
		IPAddress:       "192.168.1.5",
	}, info)
}
