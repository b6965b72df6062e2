package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"hookcode/internal/follow"
	"hookcode/internal/store"
	"hookcode/internal/timeline"
)

// LiveMessage is one frame of the live stream: the whole run as of the
// last applied batch of lines.
type LiveMessage struct {
	Type string            `json:"type"`
	Run  store.RunDocument `json:"run"`
}

const liveWriteTimeout = 10 * time.Second

// handleLive upgrades to WebSocket, sends the current timeline, then a new
// snapshot each time appended lines change it.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	path, err := store.FindRunPath(s.config.RunsDir, runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
		}
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		log.Printf("server: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	// The client only sends close frames; CloseRead cancels ctx when one
	// arrives or the connection drops.
	ctx := conn.CloseRead(r.Context())

	wsConnectionsActive.Inc()
	defer wsConnectionsActive.Dec()

	b := timeline.NewBuilder()
	skipped := 0
	first := true

	err = follow.TailBatches(ctx, path, true, func(lines []string) error {
		changed := false
		for _, line := range lines {
			events, err := b.ApplyLine(line)
			if err != nil {
				skipped++
				linesTotal.WithLabelValues("skipped").Inc()
				continue
			}
			linesTotal.WithLabelValues("applied").Inc()
			for _, ev := range events {
				eventsTotal.WithLabelValues(string(ev.EventKind())).Inc()
			}
			changed = changed || len(events) > 0
		}
		if !first && !changed {
			return nil
		}
		first = false

		run := store.Run{
			ID:        runID,
			Path:      path,
			UpdatedAt: time.Now(),
			Meta:      b.Meta(),
			Timeline:  b.Snapshot(),
		}
		doc := run.Document()
		doc.Skipped = skipped
		return writeLive(ctx, conn, LiveMessage{Type: "snapshot", Run: doc})
	})

	switch {
	case err == nil, errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	case errors.Is(err, follow.ErrRemoved):
		conn.Close(websocket.StatusGoingAway, "run removed")
	default:
		log.Printf("server: live %s: %v", runID, err)
		conn.Close(websocket.StatusInternalError, "follow failed")
	}
}

func writeLive(ctx context.Context, conn *websocket.Conn, msg LiveMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
