package sonos

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/SoCo/socos/internal/logging"
)

const (
	ssdpAddress      = "239.255.255.250:1900"
	ssdpSearchTarget = "urn:schemas-upnp-org:device:ZonePlayer:1"

	// DefaultDiscoveryTimeout is how long Discover listens for SSDP
	// responses when the caller does not say otherwise.
	DefaultDiscoveryTimeout = 3 * time.Second
)

// Discover locates Sonos speakers on the local network via SSDP M-SEARCH
// and returns them sorted by IP address. It listens for responses until
// the timeout elapses or ctx is cancelled, deduplicating by IP.
func Discover(ctx context.Context, timeout time.Duration) ([]*Speaker, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	defer conn.Close()

	dest, err := net.ResolveUDPAddr("udp4", ssdpAddress)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	request := strings.Join([]string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + ssdpAddress,
		`MAN: "ssdp:discover"`,
		"MX: 1",
		"ST: " + ssdpSearchTarget,
		"", "",
	}, "\r\n")

	// Three probes; SSDP is UDP and speakers are allowed to miss one.
	for i := 0; i < 3; i++ {
		if _, err := conn.WriteTo([]byte(request), dest); err != nil {
			return nil, fmt.Errorf("discover: send M-SEARCH: %w", err)
		}
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	seen := make(map[string]*Speaker)
	buf := make([]byte, 2048)
	for {
		if err := ctx.Err(); err != nil {
			break
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			// Deadline expiry ends the collection window.
			break
		}
		host, ok := parseSSDPResponse(buf[:n])
		if !ok {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		logging.Debug("Discovered speaker", logging.Fields{"ip": host})
		seen[host] = New(host)
	}

	speakers := make([]*Speaker, 0, len(seen))
	for _, sp := range seen {
		speakers = append(speakers, sp)
	}
	sortByIP(speakers)
	return speakers, nil
}

// parseSSDPResponse extracts the speaker IP from one SSDP unicast
// response. Non-Sonos UPnP devices answering the multicast are ignored.
func parseSSDPResponse(data []byte) (string, bool) {
	reader := bufio.NewReader(bytes.NewReader(data))
	resp, err := http.ReadResponse(reader, nil)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	if !strings.Contains(resp.Header.Get("Server"), "Sonos") {
		return "", false
	}
	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil || location.Hostname() == "" {
		return "", false
	}
	return location.Hostname(), true
}

func sortByIP(speakers []*Speaker) {
	sort.Slice(speakers, func(i, j int) bool {
		a, b := net.ParseIP(speakers[i].IP), net.ParseIP(speakers[j].IP)
		if a == nil || b == nil {
			return speakers[i].IP < speakers[j].IP
		}
		return bytes.Compare(a.To16(), b.To16()) < 0
	})
}
