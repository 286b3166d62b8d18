package shell

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/SoCo/socos/internal/display"
	"github.com/SoCo/socos/internal/mixer"
	"github.com/SoCo/socos/internal/musiclib"
	"github.com/SoCo/socos/internal/sonos"
)

// command is one entry in the dispatch table. requiresSpeaker commands
// resolve the session's current speaker, or take an IP as their first
// argument when none is selected. coordinatorOnly commands refuse to
// run on grouped speakers that do not coordinate their group.
type command struct {
	name            string
	summary         string
	usage           string
	requiresSpeaker bool
	coordinatorOnly bool
	run             func(ctx context.Context, s *Session, dev Device, args []string) error
}

func commandTable() []*command {
	return []*command{
		{
			name:    "list",
			summary: "List available speakers",
			usage:   "list\n\nDiscover the speakers on the network and list them with the\nnumbers used by `set`.",
			run:     cmdList,
		},
		{
			name:            "partymode",
			summary:         "Put all speakers in the same group, a.k.a. Party Mode",
			usage:           "partymode\n\nJoin every speaker on the network into the current speaker's group.",
			requiresSpeaker: true,
			run:             cmdPartymode,
		},
		{
			name:            "info",
			summary:         "Information about a speaker",
			usage:           "info\n\nShow zone name, serial number, versions and addresses.",
			requiresSpeaker: true,
			run:             cmdInfo,
		},
		{
			name:            "play",
			summary:         "Start playing",
			usage:           "play [index]\n\nStart playback, optionally from the given queue index.",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdPlay,
		},
		{
			name:            "pause",
			summary:         "Pause",
			usage:           "pause\n\nPause playback if playing.",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdPause,
		},
		{
			name:            "stop",
			summary:         "Stop",
			usage:           "stop\n\nStop playback if playing or paused.",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdStop,
		},
		{
			name:            "next",
			summary:         "Play the next track",
			usage:           "next",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdNext,
		},
		{
			name:            "previous",
			summary:         "Play the previous track",
			usage:           "previous",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdPrevious,
		},
		{
			name:            "mode",
			summary:         "Change or show the play mode of a device",
			usage:           "mode [MODE]\n\nAccepted modes: NORMAL, SHUFFLE_NOREPEAT, SHUFFLE, REPEAT_ALL.",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdMode,
		},
		{
			name:            "current",
			summary:         "Show the current track",
			usage:           "current",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdCurrent,
		},
		{
			name:            "queue",
			summary:         "Show the current queue",
			usage:           "queue\n\nList the queue; the playing track is highlighted.",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdQueue,
		},
		{
			name:            "remove",
			summary:         "Remove tracks from the queue by index",
			usage:           "remove <index|first..last>\n\nRemove one queue index or an inclusive range, then show the queue.",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdRemove,
		},
		{
			name:            "volume",
			summary:         "Change or show the volume of a device",
			usage:           "volume [+N|-N|+|-]\n\nShow the volume, or adjust it. Bare + or - steps by one.\nThe volume is clamped to 0..100.",
			requiresSpeaker: true,
			run:             cmdVolume,
		},
		{
			name:            "bass",
			summary:         "Change or show the bass value of a device",
			usage:           "bass [+N|-N|+|-]\n\nShow the bass level, or adjust it within -10..10.",
			requiresSpeaker: true,
			run:             cmdBass,
		},
		{
			name:            "treble",
			summary:         "Change or show the treble value of a device",
			usage:           "treble [+N|-N|+|-]\n\nShow the treble level, or adjust it within -10..10.",
			requiresSpeaker: true,
			run:             cmdTreble,
		},
		{
			name:            "state",
			summary:         "Get the current state of a device / group",
			usage:           "state",
			requiresSpeaker: true,
			coordinatorOnly: true,
			run:             cmdState,
		},
		libraryCommand("tracks", sonos.CategoryTracks),
		libraryCommand("albums", sonos.CategoryAlbums),
		libraryCommand("artists", sonos.CategoryArtists),
		libraryCommand("playlists", sonos.CategoryPlaylists),
		libraryCommand("sonosplaylists", sonos.CategorySonosPlaylists),
		{
			name:    "exit",
			summary: "Exit socos",
			usage:   "exit",
			run:     cmdExit,
		},
		{
			name:    "set",
			summary: "Set the current speaker by list number or IP",
			usage:   "set <number|ip>\n\nSelect the speaker the session's commands apply to. Numbers refer\nto the last `list` output; an unknown list triggers a discovery.",
			run:     cmdSet,
		},
		{
			name:    "unset",
			summary: "Reset the current speaker",
			usage:   "unset",
			run:     cmdUnset,
		},
		{
			name:    "help",
			summary: "Print a list of commands with short description",
			usage:   "help [command]",
			run:     cmdHelp,
		},
	}
}

func libraryCommand(name string, category sonos.Category) *command {
	return &command{
		name:            name,
		summary:         fmt.Sprintf("Search %s in the music library", name),
		usage:           fmt.Sprintf("%s [query] [add|replace <number>]\n\nSearch the music library. With add or replace, enqueue result\n<number>; replace clears the queue first.", name),
		requiresSpeaker: true,
		run: func(ctx context.Context, s *Session, dev Device, args []string) error {
			// Searching works on any speaker; enqueueing changes the
			// group queue, which only the coordinator may do.
			if len(args) >= 2 {
				coordinator, err := dev.IsCoordinator(ctx)
				if err != nil {
					return err
				}
				if !coordinator {
					return sonos.ErrNotCoordinator
				}
			}
			sp := s.render.NewSpinner("Searching the music library...")
			sp.Start()
			lines, err := musiclib.Run(ctx, dev, category, args)
			sp.Stop()
			if err != nil {
				return err
			}
			for _, line := range lines {
				s.render.Println(line)
			}
			return nil
		},
	}
}

func cmdList(ctx context.Context, s *Session, _ Device, _ []string) error {
	devices, err := s.runDiscovery(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(devices))
	for i, dev := range devices {
		name, err := dev.RoomName(ctx)
		if err != nil {
			return err
		}
		rows = append(rows, []string{fmt.Sprintf("(%d)", i+1), dev.Addr(), name})
	}

	if s.render.Decorated() {
		s.render.Table([]string{"#", "IP", "Room"}, rows,
			display.AlignRight, display.AlignLeft, display.AlignLeft)
		return nil
	}
	for _, row := range rows {
		s.render.Println(fmt.Sprintf("%s %-15s %s", row[0], row[1], row[2]))
	}
	return nil
}

// runDiscovery discovers speakers behind a spinner and refreshes the
// session's numbered speaker list.
func (s *Session) runDiscovery(ctx context.Context) ([]Device, error) {
	sp := s.render.NewSpinner("Discovering speakers...")
	sp.Start()
	devices, err := s.discover(ctx, s.cfg.DiscoveryTimeout())
	sp.Stop()
	if err != nil {
		return nil, err
	}
	s.known = devices
	return devices, nil
}

func cmdPartymode(ctx context.Context, s *Session, dev Device, _ []string) error {
	uid, err := dev.UID(ctx)
	if err != nil {
		return err
	}
	others := s.known
	if len(others) == 0 {
		if others, err = s.runDiscovery(ctx); err != nil {
			return err
		}
	}
	for _, other := range others {
		if other.Addr() == dev.Addr() {
			continue
		}
		if err := other.JoinGroup(ctx, uid); err != nil {
			return fmt.Errorf("join %s: %w", other.Addr(), err)
		}
	}
	return nil
}

func cmdInfo(ctx context.Context, s *Session, dev Device, _ []string) error {
	info, err := dev.ZoneInfo(ctx)
	if err != nil {
		return err
	}
	rows := [][]string{
		{"zone name", info.ZoneName},
		{"serial number", info.SerialNumber},
		{"software version", info.SoftwareVersion},
		{"hardware version", info.HardwareVersion},
		{"mac address", info.MACAddress},
		{"ip address", info.IPAddress},
	}
	if s.render.Decorated() {
		s.render.Table([]string{"Field", "Value"}, rows)
		return nil
	}
	for _, row := range rows {
		s.render.Println(fmt.Sprintf("%s: %s", row[0], row[1]))
	}
	return nil
}

func cmdPlay(ctx context.Context, s *Session, dev Device, args []string) error {
	if len(args) > 0 {
		if err := playIndex(ctx, dev, args[0]); err != nil {
			return err
		}
	} else if err := dev.Play(ctx); err != nil {
		return err
	}
	return printCurrent(ctx, s, dev)
}

// playIndex plays the 1-based queue index, validating it against the
// queue length. Seeking to the already-playing index is a no-op.
func playIndex(ctx context.Context, dev Device, arg string) error {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("queue index must be an integer, got %q", arg)
	}
	queue, err := dev.Queue(ctx)
	if err != nil {
		return err
	}
	if index < 1 || index > len(queue) {
		return fmt.Errorf("index %d is not within range 1 - %d", index, len(queue))
	}
	track, err := dev.CurrentTrack(ctx)
	if err != nil {
		return err
	}
	if index == track.Position {
		return nil
	}
	return dev.PlayFromQueue(ctx, index-1)
}

func cmdPause(ctx context.Context, s *Session, dev Device, _ []string) error {
	info, err := dev.TransportInfo(ctx)
	if err != nil {
		return err
	}
	if info.State == "PLAYING" {
		if err := dev.Pause(ctx); err != nil {
			return err
		}
	}
	return printCurrent(ctx, s, dev)
}

func cmdStop(ctx context.Context, s *Session, dev Device, _ []string) error {
	info, err := dev.TransportInfo(ctx)
	if err != nil {
		return err
	}
	if info.State == "PLAYING" || info.State == "PAUSED_PLAYBACK" {
		if err := dev.Stop(ctx); err != nil {
			return err
		}
	}
	return printCurrent(ctx, s, dev)
}

func cmdNext(ctx context.Context, s *Session, dev Device, _ []string) error {
	if err := dev.Next(ctx); err != nil {
		return err
	}
	return printCurrent(ctx, s, dev)
}

func cmdPrevious(ctx context.Context, s *Session, dev Device, _ []string) error {
	if err := dev.Previous(ctx); err != nil {
		return err
	}
	return printCurrent(ctx, s, dev)
}

func cmdMode(ctx context.Context, s *Session, dev Device, args []string) error {
	if len(args) > 0 {
		mode := strings.ToUpper(args[0])
		if !sonos.ValidPlayMode(mode) {
			return fmt.Errorf("invalid play mode %q; accepted modes: NORMAL, SHUFFLE_NOREPEAT, SHUFFLE, REPEAT_ALL", args[0])
		}
		if err := dev.SetPlayMode(ctx, sonos.PlayMode(mode)); err != nil {
			return err
		}
	}
	mode, err := dev.PlayMode(ctx)
	if err != nil {
		return err
	}
	s.render.Println(string(mode))
	return nil
}

func cmdCurrent(ctx context.Context, s *Session, dev Device, _ []string) error {
	return printCurrent(ctx, s, dev)
}

func printCurrent(ctx context.Context, s *Session, dev Device) error {
	track, err := dev.CurrentTrack(ctx)
	if err != nil {
		return err
	}
	s.render.Println(fmt.Sprintf(
		"Current track: %s - %s. From album %s. This is track number %d in the playlist. It is %s minutes long.",
		track.Artist, track.Title, track.Album, track.Position, track.Duration))
	return nil
}

func cmdQueue(ctx context.Context, s *Session, dev Device, _ []string) error {
	return printQueue(ctx, s, dev)
}

func printQueue(ctx context.Context, s *Session, dev Device) error {
	queue, err := dev.Queue(ctx)
	if err != nil {
		return err
	}
	track, err := dev.CurrentTrack(ctx)
	if err != nil {
		return err
	}

	padding := len(strconv.Itoa(len(queue)))
	for i, item := range queue {
		line := fmt.Sprintf("%*d: %s - %s. From album %s.",
			padding, i+1, item.Creator, item.Title, item.Album)
		if i+1 == track.Position {
			line = s.render.Bold(line)
		}
		s.render.Println(line)
	}
	return nil
}

func cmdRemove(ctx context.Context, s *Session, dev Device, args []string) error {
	if len(args) > 0 {
		indexes, err := parseRange(args[0])
		if err != nil {
			return err
		}
		// Remove from the back so earlier removals do not shift the
		// indexes still pending.
		sort.Sort(sort.Reverse(sort.IntSlice(indexes)))
		for _, index := range indexes {
			queue, err := dev.Queue(ctx)
			if err != nil {
				return err
			}
			if index < 1 || index > len(queue) {
				return fmt.Errorf("index %d is not within range 1 - %d", index, len(queue))
			}
			if err := dev.RemoveFromQueue(ctx, index-1); err != nil {
				return err
			}
		}
	}
	return printQueue(ctx, s, dev)
}

func cmdVolume(ctx context.Context, s *Session, dev Device, args []string) error {
	return adjustSetting(ctx, s, args, mixer.Control{
		Min: 0, Max: 100,
		Get: dev.Volume, Set: dev.SetVolume,
	})
}

func cmdBass(ctx context.Context, s *Session, dev Device, args []string) error {
	return adjustSetting(ctx, s, args, mixer.Control{
		Min: -10, Max: 10,
		Get: dev.Bass, Set: dev.SetBass,
	})
}

func cmdTreble(ctx context.Context, s *Session, dev Device, args []string) error {
	return adjustSetting(ctx, s, args, mixer.Control{
		Min: -10, Max: 10,
		Get: dev.Treble, Set: dev.SetTreble,
	})
}

func adjustSetting(ctx context.Context, s *Session, args []string, control mixer.Control) error {
	if len(args) == 0 {
		value, err := control.Get(ctx)
		if err != nil {
			return err
		}
		s.render.Println(strconv.Itoa(value))
		return nil
	}
	value, err := mixer.Adjust(ctx, control, args[0])
	if err != nil {
		return err
	}
	s.render.Println(strconv.Itoa(value))
	return nil
}

func cmdState(ctx context.Context, s *Session, dev Device, _ []string) error {
	info, err := dev.TransportInfo(ctx)
	if err != nil {
		return err
	}
	s.render.Println(info.State)
	return nil
}

func cmdExit(_ context.Context, s *Session, _ Device, _ []string) error {
	s.quit = true
	return nil
}

func cmdSet(ctx context.Context, s *Session, _ Device, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: set <number|ip>")
	}
	arg := args[0]

	// A bare number refers to the last discovery listing.
	if !strings.Contains(arg, ".") {
		if len(s.known) == 0 {
			if _, err := s.runDiscovery(ctx); err != nil {
				return err
			}
		}
		n, err := strconv.Atoi(arg)
		if err == nil && n >= 1 && n <= len(s.known) {
			s.current = s.known[n-1]
			return nil
		}
		return fmt.Errorf("no speaker number %q in the last list; run `list`", arg)
	}

	s.current = s.connect(arg)
	return nil
}

func cmdUnset(_ context.Context, s *Session, _ Device, _ []string) error {
	s.current = nil
	return nil
}

func cmdHelp(_ context.Context, s *Session, _ Device, args []string) error {
	if len(args) > 0 {
		if cmd, ok := s.byName[strings.ToLower(args[0])]; ok {
			s.render.Println(cmd.usage)
			return nil
		}
	}
	s.render.Println(strings.TrimRight(s.render.Markdown(s.helpMarkdown()), "\n"))
	return nil
}

// helpListing is the plain command summary printed after an unknown
// command.
func (s *Session) helpListing() string {
	var b strings.Builder
	b.WriteString("Available commands:")
	for _, cmd := range s.commands {
		b.WriteString(fmt.Sprintf("\n * %-14s %s", cmd.name, cmd.summary))
	}
	return b.String()
}

// helpMarkdown is the same listing as a markdown document for glamour.
func (s *Session) helpMarkdown() string {
	var b strings.Builder
	b.WriteString("# Available commands\n\n")
	for _, cmd := range s.commands {
		b.WriteString(fmt.Sprintf("* `%s`: %s\n", cmd.name, cmd.summary))
	}
	return b.String()
}
