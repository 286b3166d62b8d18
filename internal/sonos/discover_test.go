package sonos

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ssdpResponse(server, location string) []byte {
	return []byte(strings.Join([]string{
		"HTTP/1.1 200 OK",
		"CACHE-CONTROL: max-age = 1800",
		"EXT:",
		"LOCATION: " + location,
		"SERVER: " + server,
		"ST: urn:schemas-upnp-org:device:ZonePlayer:1",
		"USN: uuid:RINCON_000E58A0AA0001400::urn:schemas-upnp-org:device:ZonePlayer:1",
		"", "",
	}, "\r\n"))
}

func TestParseSSDPResponse(t *testing.T) {
	data := ssdpResponse(
		"Linux UPnP/1.0 Sonos/70.4-35050 (ZPS12)",
		"http://192.168.1.5:1400/xml/device_description.xml",
	)
	host, ok := parseSSDPResponse(data)
	require.True(t, ok)
	assert.Equal(t, "192.168.1.5", host)
}

func TestParseSSDPResponse_NonSonos(t *testing.T) {
	data := ssdpResponse(
		"Linux UPnP/1.0 SomeRouter/1.0",
		"http://192.168.1.1:5000/rootDesc.xml",
	)
	_, ok := parseSSDPResponse(data)
	assert.False(t, ok)
}

func TestParseSSDPResponse_Garbage(t *testing.T) {
	_, ok := parseSSDPResponse([]byte("not an http response"))
	assert.False(t, ok)

	_, ok = parseSSDPResponse(nil)
	assert.False(t, ok)
}

func TestParseSSDPResponse_MissingLocation(t *testing.T) {
	data := []byte(strings.Join([]string{
		"HTTP/1.1 200 OK",
		"SERVER: Linux UPnP/1.0 Sonos/70.4-35050 (ZPS12)",
		"", "",
	}, "\r\n"))
	_, ok := parseSSDPResponse(data)
	assert.False(t, ok)
}

func TestSortByIP(t *testing.T) {
	speakers := []*Speaker{
		{IP: "192.168.1.10"},
		{IP: "192.168.1.2"},
		{IP: "10.0.0.200"},
		{IP: "192.168.1.101"},
	}
	sortByIP(speakers)

	ips := make([]string, len(speakers))
	for i, sp := range speakers {
		ips[i] = sp.IP
	}
	// Numeric octet order, not string order.
	assert.Equal(t, []string{"10.0.0.200", "192.168.1.2", "192.168.1.10", "192.168.1.101"}, ips)
}
