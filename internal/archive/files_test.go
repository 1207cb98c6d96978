package archive

import (
	"math"
	"testing"
)

func TestSelectBestVideoFile(t *testing.T) {
	tests := []struct {
		name     string
		files    []File
		wantName string
		wantOK   bool
	}{
		{
			name: "prefers h.264 over earlier MPEG4",
			files: []File{
				{Name: "a.mp4", Format: "MPEG4"},
				{Name: "a.h264.mp4", Format: "h.264"},
			},
			wantName: "a.h264.mp4",
			wantOK:   true,
		},
		{
			name: "skips originals",
			files: []File{
				{Name: "orig.mp4", Format: "h.264", Source: "original"},
				{Name: "a.webm", Format: "WebM", Source: "derivative"},
			},
			wantName: "a.webm",
			wantOK:   true,
		},
		{
			name:   "no playable file",
			files:  []File{{Name: "a.jpg", Format: "JPEG"}, {Name: "a.avi", Format: "Cinepack"}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBestVideoFile(tt.files)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Name != tt.wantName {
				t.Errorf("name = %q, want %q", got.Name, tt.wantName)
			}
		})
	}
}

func TestDownloadURL(t *testing.T) {
	file := File{Name: "My Film.mp4"}

	tests := []struct {
		name string
		meta *Metadata
		file File
		want string
	}{
		{
			name: "server wins over d1",
			meta: &Metadata{Server: "ia801.us.archive.org", D1: "ia1.us.archive.org", Dir: "/3/items/film"},
			file: file,
			want: "https://ia801.us.archive.org/3/items/film/My%20Film.mp4",
		},
		{
			name: "falls back to d1",
			meta: &Metadata{D1: "ia1.us.archive.org", Dir: "/3/items/film"},
			file: file,
			want: "https://ia1.us.archive.org/3/items/film/My%20Film.mp4",
		},
		{
			name: "default server and dir",
			meta: &Metadata{Metadata: ItemMetadata{Title: "film"}},
			file: file,
			want: "https://" + DefaultServer + "/0/items/film/My%20Film.mp4",
		},
		{
			name: "nested file keeps its slashes",
			meta: &Metadata{Server: "s", Dir: "/d"},
			file: File{Name: "reel 1/part.mp4"},
			want: "https://s/d/reel%201/part.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DownloadURL(tt.meta, tt.file); got != tt.want {
				t.Errorf("DownloadURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRuntime(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"1:02:03", f(3723)},
		{"12:30", f(750)},
		{"5400", f(5400)},
		{"93.5", f(93.5)},
		{"93 minutes", f(5580)},
		{"2 hours", f(7200)},
		{"", nil},
		{"unknown", nil},
		{"1:2:3:4", nil},
		{"ab:cd", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseRuntime(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseRuntime(%q) = %v, want nil", tt.in, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseRuntime(%q) = nil, want %v", tt.in, *tt.want)
			}
			if math.Abs(*got-*tt.want) > 1e-9 {
				t.Errorf("ParseRuntime(%q) = %v, want %v", tt.in, *got, *tt.want)
			}
		})
	}
}

func f(v float64) *float64 { return &v }

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain text ", "plain text"},
		{"<p>A <b>silent</b> film.</p><p>Restored in   2010.</p>", "A silent film.\nRestored in 2010."},
		{"line one<br>line two", "line one\nline two"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
