package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/mudra/internal/capture"
)

// StreamHandler serves the capture loop's latest frames as MJPEG.
type StreamHandler struct {
	latest *capture.Latest
}

// NewStreamHandler creates a StreamHandler reading from latest.
func NewStreamHandler(latest *capture.Latest) *StreamHandler {
	return &StreamHandler{latest: latest}
}

// ServeHTTP writes each new frame as a multipart part until the client leaves.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var seq uint64
	for {
		jpeg, next, err := h.latest.Next(r.Context(), seq)
		if err != nil {
			return
		}
		seq = next

		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
			return
		}
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
