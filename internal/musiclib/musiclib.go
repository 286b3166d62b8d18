// Package musiclib implements the music library commands: searching
// tracks, albums, artists and playlists, and queueing a search result by
// its number.
package musiclib

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SoCo/socos/internal/sonos"
)

// Device is the slice of the speaker API the library commands need.
type Device interface {
	SearchLibrary(ctx context.Context, category sonos.Category, term string) ([]sonos.Item, error)
	AddToQueue(ctx context.Context, item sonos.Item) error
	ClearQueue(ctx context.Context) error
}

// label returns the human name used in enqueue confirmations.
func label(category sonos.Category) string {
	switch category {
	case sonos.CategoryTracks:
		return "tracks"
	case sonos.CategoryAlbums:
		return "albums"
	case sonos.CategoryArtists:
		return "artists"
	case sonos.CategoryPlaylists:
		return "playlists"
	case sonos.CategorySonosPlaylists:
		return "sonos playlists"
	default:
		return string(category)
	}
}

// Run executes one library command. With no arguments it lists the whole
// category; with a query it searches; with a trailing "add <n>" or
// "replace <n>" it enqueues result n, clearing the queue first for
// replace. It returns the lines to print.
func Run(ctx context.Context, dev Device, category sonos.Category, args []string) ([]string, error) {
	var term string
	if len(args) > 0 {
		term = args[0]
	}

	items, err := dev.SearchLibrary(ctx, category, term)
	if err != nil {
		return nil, err
	}

	if len(args) < 2 {
		return formatResults(category, items), nil
	}
	if len(args) < 3 {
		return nil, fmt.Errorf("usage: <query> %s <number>", args[1])
	}

	line, err := enqueue(ctx, dev, category, items, args[1], args[2])
	if err != nil {
		return nil, err
	}
	return []string{line}, nil
}

// enqueue adds search result number (1-based) to the queue, optionally
// replacing the current queue.
func enqueue(ctx context.Context, dev Device, category sonos.Category, items []sonos.Item, action, number string) (string, error) {
	if action != "add" && action != "replace" {
		return "", fmt.Errorf("action must be one of 'add' or 'replace'")
	}

	n, err := strconv.Atoi(number)
	if err != nil {
		return "", fmt.Errorf("play number must be parseable as integer")
	}
	if n < 1 || n > len(items) {
		switch {
		case len(items) == 0:
			return "", fmt.Errorf("no results to play from")
		case len(items) == 1:
			return "", fmt.Errorf("play number can only be 1")
		default:
			return "", fmt.Errorf("play number has to be within the range 1 to %d", len(items))
		}
	}
	item := items[n-1]

	out := "Added %s to queue: '%s'"
	if action == "replace" {
		if err := dev.ClearQueue(ctx); err != nil {
			return "", err
		}
		out = "Queue replaced with %s: '%s'"
	}
	if err := dev.AddToQueue(ctx, item); err != nil {
		return "", err
	}
	return fmt.Sprintf(out, label(category), item.Title), nil
}

// formatResults renders search results as numbered lines, one pattern
// per category.
func formatResults(category sonos.Category, items []sonos.Item) []string {
	width := len(strconv.Itoa(len(items)))
	lines := make([]string, 0, len(items))
	for i, item := range items {
		var body string
		switch category {
		case sonos.CategoryTracks:
			body = fmt.Sprintf("%s on %s by %s", item.Title, item.Album, item.Creator)
		case sonos.CategoryAlbums:
			body = fmt.Sprintf("%s by %s", item.Title, item.Creator)
		default:
			body = item.Title
		}
		lines = append(lines, fmt.Sprintf("(%*d) %s", width, i+1, body))
	}
	return lines
}
