// Package manifest writes and reads talks.json, the index of published decks.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/talks"
)

// Entry is one published deck. Field order is the on-disk order.
type Entry struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Tag      string `json:"tag"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// URL is the site path of a deck: /<rootName>/<slug>/.
func URL(rootName, slug string) string {
	return path.Join("/", rootName, slug) + "/"
}

// EntryFor describes talk as published under the output root named rootName.
func EntryFor(talk talks.Talk, rootName string) Entry {
	return Entry{
		Title:    talk.Title,
		Slug:     talk.Slug,
		Tag:      talk.Tag,
		Category: talk.Category,
		URL:      URL(rootName, talk.Slug),
	}
}

// Entries maps talks to entries, preserving order.
func Entries(list []talks.Talk, rootName string) []Entry {
	entries := make([]Entry, 0, len(list))
	for _, t := range list {
		entries = append(entries, EntryFor(t, rootName))
	}
	return entries
}

// Marshal renders entries as two-space indented JSON with a trailing newline. A nil slice
// renders as [].
func Marshal(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Write replaces the manifest at path.
func Write(path string, entries []Entry) error {
	data, err := Marshal(entries)
	if err != nil {
		return errors.InternalError("encode manifest").WithCause(err).Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileSystemError("create manifest directory").
			WithCause(err).WithContext("path", path).Build()
	}
	// #nosec G306 -- the manifest is published alongside the decks
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.FileSystemError("write manifest").
			WithCause(err).WithContext("path", path).Build()
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingInputError("manifest not found").
				WithCause(err).WithContext("path", path).Build()
		}
		return nil, errors.FileSystemError("read manifest").
			WithCause(err).WithContext("path", path).Build()
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.ValidationError("manifest is not a JSON array of entries").
			WithCause(err).WithContext("path", path).Build()
	}
	return entries, nil
}
