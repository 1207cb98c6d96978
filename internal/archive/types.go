package archive

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Text is a metadata value that the archive returns either as a string or as
// an array of strings. Arrays are joined with newlines.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '[' {
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*t = Text(strings.Join(parts, "\n"))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Numbers show up for fields like runtime.
		*t = Text(string(data))
		return nil //nolint:nilerr // non-string scalars are kept verbatim
	}
	*t = Text(s)
	return nil
}

// String returns the value as a plain string.
func (t Text) String() string { return string(t) }

// SearchDoc is one item returned by the advanced search API.
type SearchDoc struct {
	Identifier  string `json:"identifier"`
	Title       Text   `json:"title"`
	Description Text   `json:"description"`
	PublicDate  Text   `json:"publicdate"`
	Creator     Text   `json:"creator"`
	Runtime     Text   `json:"runtime"`
}

// PublishedAt parses PublicDate. The zero time is returned when absent or
// malformed.
func (d SearchDoc) PublishedAt() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, string(d.PublicDate)); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// SearchResult is a page of a collection listing.
type SearchResult struct {
	NumFound int         `json:"numFound"`
	Start    int         `json:"start"`
	Docs     []SearchDoc `json:"docs"`
}

type searchResponse struct {
	Response SearchResult `json:"response"`
}

// File is one file attached to an item.
type File struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Size   Text   `json:"size"`
	Source string `json:"source"`
	Height Text   `json:"height"`
	Width  Text   `json:"width"`
}

// ItemMetadata is the descriptive part of an item's metadata.
type ItemMetadata struct {
	Title       Text `json:"title"`
	Description Text `json:"description"`
	Creator     Text `json:"creator"`
	Date        Text `json:"date"`
	Runtime     Text `json:"runtime"`
}

// Metadata is the full metadata document for an item.
type Metadata struct {
	Files    []File       `json:"files"`
	Metadata ItemMetadata `json:"metadata"`
	Server   string       `json:"server"`
	D1       string       `json:"d1"`
	D2       string       `json:"d2"`
	Dir      string       `json:"dir"`
}
