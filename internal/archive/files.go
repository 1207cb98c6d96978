package archive

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultServer is used when an item's metadata names no storage server.
const DefaultServer = "ia600000.us.archive.org"

// PreferredFormats lists playable video formats, best first.
var PreferredFormats = []string{"h.264", "MPEG4", "512Kb MPEG4", "WebM", "Ogg Video"}

// SelectBestVideoFile returns the first derivative file in PreferredFormats
// order. Original uploads are skipped because they are often huge or in
// formats browsers cannot play.
func SelectBestVideoFile(files []File) (File, bool) {
	for _, format := range PreferredFormats {
		for _, f := range files {
			if f.Format == format && f.Source != "original" {
				return f, true
			}
		}
	}
	return File{}, false
}

// DownloadURL builds the direct URL for file on the item's storage server.
func DownloadURL(meta *Metadata, file File) string {
	server := meta.Server
	if server == "" {
		server = meta.D1
	}
	if server == "" {
		server = DefaultServer
	}

	dir := meta.Dir
	if dir == "" {
		dir = "/0/items/" + url.PathEscape(meta.Metadata.Title.String())
	}

	return "https://" + server + dir + "/" + escapePath(file.Name)
}

// escapePath escapes each segment of a file name that may contain slashes.
func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ParseRuntime converts "HH:MM:SS", "MM:SS" or a number of seconds into
// seconds. It returns nil when the value cannot be parsed.
func ParseRuntime(runtime string) *float64 {
	runtime = strings.TrimSpace(runtime)
	if runtime == "" {
		return nil
	}

	if strings.Contains(runtime, ":") {
		parts := strings.Split(runtime, ":")
		if len(parts) != 2 && len(parts) != 3 {
			return nil
		}
		var total float64
		for _, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil || n < 0 {
				return nil
			}
			total = total*60 + n
		}
		return &total
	}

	// Plain seconds, optionally followed by a unit such as "93 minutes".
	fields := strings.Fields(runtime)
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || seconds < 0 {
		return nil
	}
	if len(fields) > 1 {
		unit := strings.ToLower(fields[1])
		switch {
		case strings.HasPrefix(unit, "min"):
			seconds *= 60
		case strings.HasPrefix(unit, "h"):
			seconds *= 3600
		}
	}
	return &seconds
}

// StripHTML reduces an HTML description to readable plain text.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
