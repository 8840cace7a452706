// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// processStream handles POST /api/process-stream. Each progress event is
// written as one "data: <json>" frame in the order the pipeline emits it.
// Leaving the handler cancels the run.
func (s *Server) processStream(w http.ResponseWriter, r *http.Request) {
	var req papersRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err, "Processing failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, err := s.deps.Processor.Stream(ctx, req.Papers)
	if err != nil {
		s.writeDomainError(w, r, err, "Processing failed")
		return
	}

	rc := http.NewResponseController(w)
	// The server write timeout must not cut off a long run.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	var heartbeat <-chan time.Time
	if s.cfg.StreamHeartbeat > 0 {
		t := time.NewTicker(s.cfg.StreamHeartbeat)
		defer t.Stop()
		heartbeat = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				s.logger.Debug().Err(err).Msg("stream client gone")
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case <-heartbeat:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// writeEvent writes a single SSE frame.
func writeEvent(w io.Writer, ev types.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
