package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/jx"
)

// streamSSE writes every value from updates as a server-sent "snapshot"
// event until the channel closes or the client goes away.
func streamSSE[T any](w http.ResponseWriter, updates <-chan T, encode func(e *jx.Encoder, v T)) {
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	for v := range updates {
		e.Reset()
		encode(e, v)
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", e.Bytes()); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
