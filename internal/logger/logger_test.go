package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
)

type fakeHub struct {
	mu       sync.Mutex
	messages []string
	payloads []any
}

func (h *fakeHub) Broadcast(msgType string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgType)
	h.payloads = append(h.payloads, payload)
}

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer[int](3)
	if got := rb.GetAll(); len(got) != 0 {
		t.Errorf("GetAll() on empty buffer = %v", got)
	}

	rb.Push(1)
	rb.Push(2)
	if got := rb.GetAll(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("GetAll() = %v, want [1 2]", got)
	}
	if rb.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rb.Len())
	}

	rb.Push(3)
	rb.Push(4)
	rb.Push(5)
	if got := rb.GetAll(); !slices.Equal(got, []int{3, 4, 5}) {
		t.Errorf("GetAll() after wrap = %v, want [3 4 5]", got)
	}
	if rb.Len() != 3 {
		t.Errorf("Len() = %d, want 3", rb.Len())
	}

	if got := rb.Last(2); !slices.Equal(got, []int{4, 5}) {
		t.Errorf("Last(2) = %v, want [4 5]", got)
	}
	if got := rb.Last(10); !slices.Equal(got, []int{3, 4, 5}) {
		t.Errorf("Last(10) = %v, want [3 4 5]", got)
	}
	if got := rb.Last(0); len(got) != 0 {
		t.Errorf("Last(0) = %v, want empty", got)
	}
}

func TestLogger_StreamsEntries(t *testing.T) {
	var out bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", EnableStreaming: true, BufferSize: 2, Output: &out})

	hub := &fakeHub{}
	log.Info().Msg("before hub")
	log.SetBroadcastHub(hub)

	component := log.WithComponent("download")
	component.Warn().Str("id", "abc").Msg("retrying")

	entries := log.GetRecentLogs()
	if len(entries) != 2 {
		t.Fatalf("recent logs = %d entries, want 2", len(entries))
	}
	if entries[0].Message != "before hub" {
		t.Errorf("first message = %q, want before hub", entries[0].Message)
	}

	last := entries[1]
	if last.Level != "warn" || last.Component != "download" || last.Message != "retrying" {
		t.Errorf("last entry = %s/%s/%s, want warn/download/retrying", last.Level, last.Component, last.Message)
	}
	if last.Fields["id"] != "abc" {
		t.Errorf("id field = %v, want abc", last.Fields["id"])
	}
	if last.Timestamp == "" {
		t.Error("entry has no timestamp")
	}

	if !slices.Equal(hub.messages, []string{"logs:entry"}) {
		t.Errorf("hub messages = %v, want one logs:entry", hub.messages)
	}
	if !strings.Contains(out.String(), `"message":"retrying"`) {
		t.Errorf("output = %s, want the retrying entry", out.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var out bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", EnableStreaming: true, Output: &out})

	log.Info().Msg("hidden")
	log.Error().Msg("shown")

	entries := log.GetRecentLogs()
	if len(entries) != 1 || entries[0].Message != "shown" {
		t.Errorf("recent logs = %+v, want only shown", entries)
	}
	if strings.Contains(out.String(), "hidden") {
		t.Error("info entry written at warn level")
	}
}

func TestLogger_WithoutStreaming(t *testing.T) {
	log := New(Config{Format: "json", Output: &bytes.Buffer{}})
	log.Info().Msg("x")
	log.SetBroadcastHub(&fakeHub{})
	if got := log.GetRecentLogs(); len(got) != 0 {
		t.Errorf("recent logs without streaming = %+v, want none", got)
	}
}

func TestLogger_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	log := New(Config{Format: "json", Path: dir, Output: &bytes.Buffer{}})
	log.Info().Msg("to disk")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to disk") {
		t.Errorf("log file = %s, want the to disk entry", data)
	}
}

func TestLogBroadcaster_IgnoresMalformed(t *testing.T) {
	b := NewLogBroadcaster(nil, 0)
	n, err := b.Write([]byte("not json"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != 8 {
		t.Errorf("wrote %d bytes, want 8", n)
	}
	if got := b.GetRecentLogs(); len(got) != 0 {
		t.Errorf("recent logs = %+v, want none", got)
	}
}
