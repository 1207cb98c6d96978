package api

import (
	"encoding/json"

	"github.com/reelvault/reelvault/internal/download"
)

// WebSocket message types for the download scheduler.
const (
	downloadEventPrefix  = "download:"
	downloadSnapshotType = "download:snapshot"
)

// wireDownloadEvents forwards every scheduler event to WebSocket clients as
// download:<type> and answers download:snapshot requests. Hub.Broadcast
// never blocks, so the listener is safe to run on the publisher goroutine.
func (s *Server) wireDownloadEvents() func() {
	if s.hub == nil || s.svc.Downloads == nil {
		return nil
	}

	s.hub.Handle(downloadSnapshotType, func(json.RawMessage) (string, interface{}, error) {
		return downloadSnapshotType, s.svc.Downloads.Snapshot(), nil
	})

	return s.svc.Downloads.Subscribe(func(e download.Event) {
		s.hub.Broadcast(downloadEventPrefix+string(e.Type), e)
	})
}
