package capture

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FrameBuffer keeps the most recent frame as JPEG for preview clients.
// Readers never block the capture loop.
type FrameBuffer struct {
	mu      sync.RWMutex
	jpeg    []byte
	seq     uint64
	updated time.Time
}

// NewFrameBuffer returns an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Update encodes frame and replaces the stored JPEG.
func (b *FrameBuffer) Update(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return fmt.Errorf("empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	b.Set(append([]byte(nil), buf.GetBytes()...))
	return nil
}

// Set stores already encoded JPEG data.
func (b *FrameBuffer) Set(jpeg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jpeg = jpeg
	b.seq++
	b.updated = time.Now()
}

// LatestJPEG returns the last frame and its sequence number. The sequence
// is 0 until the first frame arrives.
func (b *FrameBuffer) LatestJPEG() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq
}

// Updated returns when the last frame was stored.
func (b *FrameBuffer) Updated() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updated
}
