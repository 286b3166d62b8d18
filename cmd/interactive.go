package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"
	"github.com/google/uuid"

	"github.com/SoCo/socos/internal/history"
	"github.com/SoCo/socos/internal/shell"
)

// promptStateTimeout bounds the speaker queries behind the prompt
// prefix so a dead speaker cannot freeze the shell.
const promptStateTimeout = 2 * time.Second

// InteractiveSession holds the state for an interactive shell session:
// the dispatcher, the persisted command history and the exit flag the
// prompt loop polls.
type InteractiveSession struct {
	app       *App
	session   *shell.Session
	history   history.Manager
	sessionID string
	exitFlag  bool
}

// runInteractive starts the interactive shell. It wires the command
// dispatcher into a prompt loop with tab completion, a live prefix
// showing the selected speaker and its state, and persistent history.
func (app *App) runInteractive(session *shell.Session) {
	fmt.Println("socos - Sonos shell")
	fmt.Println("Type help for commands, Ctrl+D to quit")
	fmt.Println()

	var mgr history.Manager
	if hist, err := history.NewHistory(); err == nil {
		if err := hist.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load history: %v\n", err)
		}
		mgr = hist
	}

	is := &InteractiveSession{
		app:       app,
		session:   session,
		history:   mgr,
		sessionID: uuid.New().String(),
	}
	if mgr != nil {
		mgr.StartSession(is.sessionID)
	}

	var previousLines []string
	if mgr != nil {
		previousLines = mgr.Lines()
	}

	p := prompt.New(
		is.executor,
		prompt.WithCompleter(is.completer),
		prompt.WithPrefixCallback(func() string {
			ctx, cancel := context.WithTimeout(context.Background(), promptStateTimeout)
			defer cancel()
			return session.PromptPrefix(ctx)
		}),
		prompt.WithTitle("socos"),
		prompt.WithHistory(previousLines),
		prompt.WithMaxSuggestion(15),
		prompt.WithCompletionOnDown(),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return is.exitFlag
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(p *prompt.Prompt) bool {
				if p.Buffer().Text() == "" {
					fmt.Println()
					is.exitFlag = true
				}
				return false
			},
		}),
	)

	p.Run()
	is.saveHistory()
}

// executor handles one input line from the prompt loop.
func (is *InteractiveSession) executor(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	args, err := shell.ParseLine(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	if is.history != nil {
		is.history.Append(is.sessionID, input)
	}

	if err := is.session.Process(context.Background(), args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if is.session.Quit() {
		is.exitFlag = true
	}
}

// saveHistory persists the session's command lines.
func (is *InteractiveSession) saveHistory() {
	if is.history == nil {
		return
	}
	if err := is.history.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save history: %v\n", err)
	}
}

// completer provides context-aware suggestions: command names first,
// then speaker numbers for set, play modes for mode, and the
// add/replace actions for the library commands.
func (is *InteractiveSession) completer(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	text := d.TextBeforeCursor()
	endIndex := d.CurrentRuneIndex()
	w := d.GetWordBeforeCursor()
	startIndex := endIndex - istrings.RuneCountInString(w)

	suggestions := is.suggestionsFor(text)
	return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
}

// suggestionsFor computes the raw suggestions for the input typed so
// far, before prefix filtering.
func (is *InteractiveSession) suggestionsFor(text string) []prompt.Suggest {
	fields := strings.Fields(text)
	completingFirstWord := len(fields) == 0 ||
		(len(fields) == 1 && !strings.HasSuffix(text, " "))

	if completingFirstWord {
		var suggestions []prompt.Suggest
		for _, info := range is.session.Commands() {
			suggestions = append(suggestions, prompt.Suggest{
				Text:        info.Name,
				Description: info.Summary,
			})
		}
		return suggestions
	}

	switch strings.ToLower(fields[0]) {
	case "set":
		var suggestions []prompt.Suggest
		for i, dev := range is.session.Known() {
			suggestions = append(suggestions, prompt.Suggest{
				Text:        fmt.Sprintf("%d", i+1),
				Description: dev.Addr(),
			})
		}
		return suggestions

	case "mode":
		return []prompt.Suggest{
			{Text: "NORMAL", Description: "Play the queue in order, once"},
			{Text: "SHUFFLE_NOREPEAT", Description: "Shuffle, stop at the end"},
			{Text: "SHUFFLE", Description: "Shuffle and repeat"},
			{Text: "REPEAT_ALL", Description: "Repeat the queue in order"},
		}

	case "help":
		var suggestions []prompt.Suggest
		for _, info := range is.session.Commands() {
			suggestions = append(suggestions, prompt.Suggest{Text: info.Name})
		}
		return suggestions

	case "tracks", "albums", "artists", "playlists", "sonosplaylists":
		// Only after a query word is complete.
		pastQuery := len(fields) >= 3 ||
			(len(fields) == 2 && strings.HasSuffix(text, " "))
		if pastQuery {
			return []prompt.Suggest{
				{Text: "add", Description: "Add a result to the queue"},
				{Text: "replace", Description: "Replace the queue with a result"},
			}
		}
	}

	return nil
}
