package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []Hand
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture geometry, in pixels of a 640x480 frame. The hand is upright with
// the palm toward the camera and the thumb on the right.
var (
	fixtureWrist = Point{X: 320, Y: 400}
	fixtureMCP   = [4]Point{{X: 350, Y: 300}, {X: 320, Y: 295}, {X: 290, Y: 300}, {X: 262, Y: 310}}
)

// PoseHand builds a hand fixture where each finger is either extended
// (pointing straight up) or folded back over the palm.
func PoseHand(thumb, index, middle, ring, pinky bool) Hand {
	h := Hand{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = fixtureWrist

	h.Points[ThumbCMC] = Point{X: 370, Y: 380}
	if thumb {
		h.Points[ThumbMCP] = Point{X: 395, Y: 350}
		h.Points[ThumbIP] = Point{X: 415, Y: 330}
		h.Points[ThumbTip] = Point{X: 435, Y: 315}
	} else {
		h.Points[ThumbMCP] = Point{X: 380, Y: 350}
		h.Points[ThumbIP] = Point{X: 362, Y: 355}
		h.Points[ThumbTip] = Point{X: 342, Y: 362}
	}

	for i, extended := range []bool{index, middle, ring, pinky} {
		setFinger(&h, IndexMCP+4*i, fixtureMCP[i], extended)
	}
	return h
}

// setFinger lays out the four joints of a finger starting at mcpIndex.
func setFinger(h *Hand, mcpIndex int, mcp Point, extended bool) {
	h.Points[mcpIndex] = mcp
	if extended {
		h.Points[mcpIndex+1] = Point{X: mcp.X, Y: mcp.Y - 50}
		h.Points[mcpIndex+2] = Point{X: mcp.X, Y: mcp.Y - 85}
		h.Points[mcpIndex+3] = Point{X: mcp.X, Y: mcp.Y - 115}
		return
	}
	h.Points[mcpIndex+1] = Point{X: mcp.X, Y: mcp.Y - 30}
	h.Points[mcpIndex+2] = Point{X: mcp.X, Y: mcp.Y}
	h.Points[mcpIndex+3] = Point{X: mcp.X, Y: mcp.Y + 20}
}

// Translate returns a copy of the hand shifted by (dx, dy).
func (h Hand) Translate(dx, dy float64) Hand {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// FistLandmarks returns a closed fist with the thumb tucked over the fingers.
func FistLandmarks() Hand {
	return PoseHand(false, false, false, false, false)
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() Hand {
	return PoseHand(true, true, true, true, true)
}

// OneFingerLandmarks returns a hand pointing up with the index finger only.
func OneFingerLandmarks() Hand {
	return PoseHand(false, true, false, false, false)
}

// VSignLandmarks returns index and middle fingers extended and spread apart.
func VSignLandmarks() Hand {
	h := PoseHand(false, true, true, false, false)
	h.Points[IndexDIP].X += 12
	h.Points[IndexTip].X += 25
	h.Points[MiddleDIP].X -= 12
	h.Points[MiddleTip].X -= 25
	return h
}

// ThumbsUpLandmarks returns a fist with the thumb pointing straight up.
func ThumbsUpLandmarks() Hand {
	h := FistLandmarks()
	h.Points[ThumbMCP] = Point{X: 380, Y: 330}
	h.Points[ThumbIP] = Point{X: 382, Y: 290}
	h.Points[ThumbTip] = Point{X: 384, Y: 255}
	return h
}

// ThumbsDownLandmarks returns a fist with the thumb pointing straight down.
func ThumbsDownLandmarks() Hand {
	h := FistLandmarks()
	h.Points[ThumbMCP] = Point{X: 380, Y: 360}
	h.Points[ThumbIP] = Point{X: 382, Y: 400}
	h.Points[ThumbTip] = Point{X: 384, Y: 440}
	return h
}
