package shell

import (
	"context"
	"time"

	"github.com/SoCo/socos/internal/sonos"
)

// Device is the speaker surface the shell commands drive. *sonos.Speaker
// implements it; tests substitute fakes.
type Device interface {
	// Addr returns the speaker's IP address.
	Addr() string

	RoomName(ctx context.Context) (string, error)
	ZoneInfo(ctx context.Context) (sonos.ZoneInfo, error)

	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, volume int) error
	Bass(ctx context.Context) (int, error)
	SetBass(ctx context.Context, bass int) error
	Treble(ctx context.Context) (int, error)
	SetTreble(ctx context.Context, treble int) error

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	PlayFromQueue(ctx context.Context, index int) error
	PlayMode(ctx context.Context) (sonos.PlayMode, error)
	SetPlayMode(ctx context.Context, mode sonos.PlayMode) error
	TransportInfo(ctx context.Context) (sonos.TransportInfo, error)
	CurrentTrack(ctx context.Context) (sonos.TrackInfo, error)

	Queue(ctx context.Context) ([]sonos.Item, error)
	AddToQueue(ctx context.Context, item sonos.Item) error
	RemoveFromQueue(ctx context.Context, index int) error
	ClearQueue(ctx context.Context) error

	UID(ctx context.Context) (string, error)
	IsCoordinator(ctx context.Context) (bool, error)
	JoinGroup(ctx context.Context, coordinatorUID string) error

	SearchLibrary(ctx context.Context, category sonos.Category, term string) ([]sonos.Item, error)
}

var _ Device = (*sonos.Speaker)(nil)

// DiscoverFunc locates the speakers on the network.
type DiscoverFunc func(ctx context.Context, timeout time.Duration) ([]Device, error)

// ConnectFunc returns a device handle for a raw IP address.
type ConnectFunc func(ip string) Device
