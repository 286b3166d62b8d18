// Package sonos is the device-control client for Sonos speakers. It
// discovers ZonePlayers over SSDP and drives them through the UPnP SOAP
// services every Sonos device exposes on port 1400 (AVTransport,
// RenderingControl, DeviceProperties, ContentDirectory and
// ZoneGroupTopology).
package sonos

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SoCo/socos/internal/logging"
)

// ControlPort is the TCP port Sonos devices serve their UPnP control
// endpoints on.
const ControlPort = 1400

// DefaultRequestTimeout bounds a single SOAP round trip.
const DefaultRequestTimeout = 10 * time.Second

// service identifies one UPnP service on a ZonePlayer.
type service struct {
	serviceType string
	controlURL  string
}

var (
	avTransport       = service{"urn:schemas-upnp-org:service:AVTransport:1", "/MediaRenderer/AVTransport/Control"}
	renderingControl  = service{"urn:schemas-upnp-org:service:RenderingControl:1", "/MediaRenderer/RenderingControl/Control"}
	deviceProperties  = service{"urn:schemas-upnp-org:service:DeviceProperties:1", "/DeviceProperties/Control"}
	contentDirectory  = service{"urn:schemas-upnp-org:service:ContentDirectory:1", "/MediaServer/ContentDirectory/Control"}
	zoneGroupTopology = service{"urn:schemas-upnp-org:service:ZoneGroupTopology:1", "/ZoneGroupTopology/Control"}
)

// arg is a single SOAP action argument.
type arg struct {
	name  string
	value string
}

// values holds the child elements of a SOAP action response.
type values map[string]string

func (v values) get(key string) string {
	return v[key]
}

func (v values) getInt(key string) (int, error) {
	s, ok := v[key]
	if !ok {
		return 0, fmt.Errorf("response is missing %s", key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("response field %s: %w", key, err)
	}
	return n, nil
}

// soapClient issues SOAP calls against a single control endpoint.
type soapClient struct {
	base string // e.g. http://192.168.1.5:1400
	http *http.Client
}

func newSOAPClient(base string, timeout time.Duration) *soapClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	httpLogger := logging.NewHTTPLogger(logging.DefaultLogger)
	return &soapClient{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: logging.NewLoggingRoundTripper(nil, httpLogger, true),
		},
	}
}

const envelopeFormat = `<?xml version="1.0"?>` +
	`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"` +
	` s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">` +
	`<s:Body><u:%s xmlns:u="%s">%s</u:%s></s:Body></s:Envelope>`

// call performs one SOAP action and returns the response arguments keyed
// by element name. A device fault becomes a *UPnPError.
func (c *soapClient) call(ctx context.Context, svc service, action string, args ...arg) (values, error) {
	var body strings.Builder
	for _, a := range args {
		body.WriteString("<" + a.name + ">")
		if err := xml.EscapeText(&body, []byte(a.value)); err != nil {
			return nil, fmt.Errorf("escape %s: %w", a.name, err)
		}
		body.WriteString("</" + a.name + ">")
	}
	envelope := fmt.Sprintf(envelopeFormat, action, svc.serviceType, body.String(), action)

	url := c.base + svc.controlURL
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf("%q", svc.serviceType+"#"+action))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", action, err)
	}

	if resp.StatusCode != http.StatusOK {
		if code, ok := parseFault(respBody); ok {
			return nil, &UPnPError{Action: action, Code: code}
		}
		return nil, fmt.Errorf("%s: unexpected status %s", action, resp.Status)
	}

	return parseResponse(respBody, action)
}

// parseFault extracts the UPnP error code from a SOAP fault body.
func parseFault(body []byte) (int, bool) {
	var fault struct {
		Code int `xml:"Body>Fault>detail>UPnPError>errorCode"`
	}
	if err := xml.Unmarshal(body, &fault); err != nil || fault.Code == 0 {
		return 0, false
	}
	return fault.Code, true
}

// parseResponse collects the children of <u:{action}Response> into a
// values map. Nested markup inside a child (none of the Sonos services
// produce any, DIDL comes back XML-escaped) is flattened to its text.
func parseResponse(body []byte, action string) (values, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	want := action + "Response"

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%s: no %s element in response", action, want)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: parse response: %w", action, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != want {
			continue
		}

		out := make(values)
		for {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%s: parse response: %w", action, err)
			}
			switch t := tok.(type) {
			case xml.StartElement:
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, fmt.Errorf("%s: parse %s: %w", action, t.Name.Local, err)
				}
				out[t.Name.Local] = text
			case xml.EndElement:
				if t.Name.Local == want {
					return out, nil
				}
			}
		}
	}
}
