// Package cmd implements the socos command-line interface.
//
// The root command processes a single shell command from argv when
// arguments are given, and starts the interactive shell otherwise:
//
//   - root.go: App struct, cobra setup, flags, one-shot dispatch
//   - interactive.go: prompt loop, completion, persistent history
//   - config_commands.go: the config init/path subcommands
//
// All command semantics live in internal/shell; this package only wires
// the dispatcher to a terminal.
package cmd
