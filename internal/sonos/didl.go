package sonos

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// didlDocument maps the DIDL-Lite documents ContentDirectory returns.
// Queue entries and library tracks arrive as <item>, albums, artists and
// playlists as <container>; both carry the same child elements.
type didlDocument struct {
	XMLName    xml.Name    `xml:"DIDL-Lite"`
	Items      []didlEntry `xml:"item"`
	Containers []didlEntry `xml:"container"`
}

type didlEntry struct {
	ID       string   `xml:"id,attr"`
	ParentID string   `xml:"parentID,attr"`
	Title    string   `xml:"title"`
	Creator  string   `xml:"creator"`
	Album    string   `xml:"album"`
	Class    string   `xml:"class"`
	Res      []string `xml:"res"`
}

func (e didlEntry) item() Item {
	it := Item{
		ID:       e.ID,
		ParentID: e.ParentID,
		Title:    e.Title,
		Creator:  e.Creator,
		Album:    e.Album,
		Class:    e.Class,
	}
	if len(e.Res) > 0 {
		it.URI = e.Res[0]
	}
	return it
}

// parseDIDL parses a DIDL-Lite document into items, preserving document
// order across <item> and <container> entries of the same kind.
func parseDIDL(doc string) ([]Item, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, nil
	}
	var parsed didlDocument
	if err := xml.Unmarshal([]byte(doc), &parsed); err != nil {
		return nil, fmt.Errorf("parse DIDL-Lite: %w", err)
	}
	items := make([]Item, 0, len(parsed.Items)+len(parsed.Containers))
	for _, e := range parsed.Items {
		items = append(items, e.item())
	}
	for _, e := range parsed.Containers {
		items = append(items, e.item())
	}
	return items, nil
}

// parseDIDLTrack parses the single-item metadata document attached to
// GetPositionInfo responses.
func parseDIDLTrack(doc string) (Item, bool) {
	items, err := parseDIDL(doc)
	if err != nil || len(items) == 0 {
		return Item{}, false
	}
	return items[0], true
}

const didlMetadataFormat = `<DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/"` +
	` xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/"` +
	` xmlns:r="urn:schemas-rinconnetworks-com:metadata-1-0/"` +
	` xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/">` +
	`<item id="%s" parentID="%s" restricted="true">` +
	`<dc:title>%s</dc:title><upnp:class>%s</upnp:class>` +
	`<desc id="cdudn" nameSpace="urn:schemas-rinconnetworks-com:metadata-1-0/">` +
	`RINCON_AssociatedZPUDN</desc></item></DIDL-Lite>`

// buildMetadata renders the minimal DIDL-Lite document AddURIToQueue
// expects alongside an enqueued URI.
func buildMetadata(it Item) string {
	return fmt.Sprintf(didlMetadataFormat,
		escapeXML(it.ID), escapeXML(it.ParentID), escapeXML(it.Title), escapeXML(it.Class))
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
