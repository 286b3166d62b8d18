package display

import (
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress during discovery and library searches. It is a
// no-op when the renderer is not decorated, so piped output never
// contains control sequences.
type Spinner struct {
	sp *spinner.Spinner
}

// NewSpinner creates a spinner with the given message. Call Start to
// show it.
func (r *Renderer) NewSpinner(message string) *Spinner {
	if !r.decorated {
		return &Spinner{}
	}
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " " + message
	return &Spinner{sp: sp}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if s.sp != nil {
		s.sp.Start()
	}
}

// UpdateMessage changes the message next to the spinner.
func (s *Spinner) UpdateMessage(message string) {
	if s.sp != nil {
		s.sp.Suffix = " " + message
	}
}

// Stop ends the animation and clears the spinner line.
func (s *Spinner) Stop() {
	if s.sp != nil {
		s.sp.Stop()
	}
}
