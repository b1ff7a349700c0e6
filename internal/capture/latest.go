package capture

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Latest holds the most recent frame as JPEG so viewers can watch the camera
// without competing with the capture loop for the device.
type Latest struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}
}

// NewLatest returns an empty frame buffer.
func NewLatest() *Latest {
	return &Latest{updated: make(chan struct{})}
}

// Store encodes frame as JPEG and publishes it.
func (l *Latest) Store(frame *gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	l.Put(data)
	return nil
}

// Put publishes an already encoded JPEG.
func (l *Latest) Put(jpeg []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jpeg = jpeg
	l.seq++
	close(l.updated)
	l.updated = make(chan struct{})
}

// Get returns the latest JPEG and its sequence number. seq is zero until the
// first frame arrives.
func (l *Latest) Get() (jpeg []byte, seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jpeg, l.seq
}

// Next blocks until a frame newer than seq is available or ctx is done.
func (l *Latest) Next(ctx context.Context, seq uint64) ([]byte, uint64, error) {
	for {
		l.mu.Lock()
		if l.seq > seq {
			jpeg, cur := l.jpeg, l.seq
			l.mu.Unlock()
			return jpeg, cur, nil
		}
		updated := l.updated
		l.mu.Unlock()

		select {
		case <-updated:
		case <-ctx.Done():
			return nil, seq, ctx.Err()
		}
	}
}
