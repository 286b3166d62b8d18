package sonos

import (
	"errors"
	"fmt"
)

// Errors returned by speaker operations.
var (
	// ErrNoSuchTrack is returned by Next/Previous when the device refuses
	// to seek past the end of the queue (UPnP error 711).
	ErrNoSuchTrack = errors.New("no such track")

	// ErrNotCoordinator is returned when a group-level operation is
	// attempted on a speaker that is not its group's coordinator.
	ErrNotCoordinator = errors.New("the speaker is not a group coordinator")
)

// UPnP error codes the client cares about.
const (
	upnpErrIllegalSeek = 711
)

// UPnPError is a SOAP fault returned by a speaker, carrying the UPnP
// error code from the fault detail.
type UPnPError struct {
	Action string
	Code   int
}

func (e *UPnPError) Error() string {
	return fmt.Sprintf("UPnP error %d from %s", e.Code, e.Action)
}

// upnpCode extracts the UPnP error code from err, or -1 if err is not a
// device fault.
func upnpCode(err error) int {
	var ue *UPnPError
	if errors.As(err, &ue) {
		return ue.Code
	}
	return -1
}
