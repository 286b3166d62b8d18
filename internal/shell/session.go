// Package shell holds the socos command dispatcher and session state.
// A session knows the currently selected speaker and the numbered
// speaker list from the last discovery; commands are looked up in a
// registry and run against whichever device the session resolves.
package shell

import (
	"context"
	"fmt"
	"io"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/SoCo/socos/internal/config"
	"github.com/SoCo/socos/internal/display"
	"github.com/SoCo/socos/internal/sonos"
)

// Session is one socos session, interactive or one-shot.
type Session struct {
	cfg      *config.Config
	render   *display.Renderer
	errOut   io.Writer
	discover DiscoverFunc
	connect  ConnectFunc

	current Device
	// known maps list numbers (1-based, as printed by list) to devices.
	known []Device

	commands []*command
	byName   map[string]*command
	quit     bool
}

// NewSession creates a session. discover and connect abstract the sonos
// package so tests can run against fakes.
func NewSession(cfg *config.Config, render *display.Renderer, errOut io.Writer, discover DiscoverFunc, connect ConnectFunc) *Session {
	s := &Session{
		cfg:      cfg,
		render:   render,
		errOut:   errOut,
		discover: discover,
		connect:  connect,
	}
	s.commands = commandTable()
	s.byName = make(map[string]*command, len(s.commands))
	for _, c := range s.commands {
		s.byName[c.name] = c
	}
	if cfg.Speaker != "" {
		s.current = connect(cfg.Speaker)
	}
	return s
}

// Quit reports whether an exit command has run.
func (s *Session) Quit() bool {
	return s.quit
}

// Current returns the selected speaker, or nil.
func (s *Session) Current() Device {
	return s.current
}

// Known returns the speakers found by the last discovery, in list
// order.
func (s *Session) Known() []Device {
	return s.known
}

// CommandInfo describes one command for completion and help.
type CommandInfo struct {
	Name    string
	Summary string
}

// Commands lists the registered commands in registration order.
func (s *Session) Commands() []CommandInfo {
	infos := make([]CommandInfo, 0, len(s.commands))
	for _, c := range s.commands {
		infos = append(infos, CommandInfo{Name: c.name, Summary: c.summary})
	}
	return infos
}

// ParseLine splits a shell input line into arguments, honoring quoting
// so search terms with spaces work (tracks "purple rain").
func ParseLine(line string) ([]string, error) {
	args, err := shellwords.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}
	return args, nil
}

// PromptPrefix returns the REPL prompt for the current state:
// "socos> ", or "socos(Kitchen|Playing)> " with a speaker selected.
func (s *Session) PromptPrefix(ctx context.Context) string {
	if s.current == nil {
		return "socos> "
	}
	name, err := s.current.RoomName(ctx)
	if err != nil {
		return "socos> "
	}
	info, err := s.current.TransportInfo(ctx)
	if err != nil {
		return fmt.Sprintf("socos(%s)> ", name)
	}
	return fmt.Sprintf("socos(%s|%s)> ", name, titleCase(info.State))
}

// Process runs one command. Output goes through the renderer; the
// returned error is something to show the user, never a reason to end
// the session.
func (s *Session) Process(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	name := strings.ToLower(args[0])
	args = args[1:]

	cmd, ok := s.byName[name]
	if !ok {
		fmt.Fprintf(s.errOut, "Unknown command %q\n", name)
		fmt.Fprintln(s.errOut, s.helpListing())
		return nil
	}

	dev := s.current
	if cmd.requiresSpeaker && dev == nil {
		if len(args) == 0 {
			return fmt.Errorf("please specify a speaker IP for %q", name)
		}
		dev = s.connect(args[0])
		args = args[1:]
	}

	if cmd.coordinatorOnly {
		coordinator, err := dev.IsCoordinator(ctx)
		if err != nil {
			return err
		}
		if !coordinator {
			return sonos.ErrNotCoordinator
		}
	}

	return cmd.run(ctx, s, dev, args)
}

// titleCase reproduces the prompt's state casing: each run of letters
// starts upper, the rest lower ("PAUSED_PLAYBACK" -> "Paused_Playback").
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		switch {
		case isLetter && !prevLetter:
			b.WriteString(strings.ToUpper(string(r)))
		case isLetter:
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}
