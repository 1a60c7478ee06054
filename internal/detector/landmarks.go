// Package detector provides hand detection interfaces and the landmark data model
// consumed by gesture classification.
package detector

import "math"

// Hand landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point is a 2-D landmark in source-image pixel space. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Hand represents the 21 landmarks of one detected hand in one frame.
// Hands carry no identity across frames.
type Hand struct {
	Points     [NumLandmarks]Point `json:"points"`
	Handedness string              `json:"handedness,omitempty"` // "Left" or "Right" as reported by the model
	Score      float64             `json:"score,omitempty"`
}

// At returns the landmark at index i.
func (h Hand) At(i int) Point {
	return h.Points[i]
}

// Wrist returns the wrist landmark.
func (h Hand) Wrist() Point {
	return h.Points[Wrist]
}

// Observation is the set of hands seen in the latest frame.
// A new observation replaces the previous one entirely.
type Observation []Hand

// Len returns the number of hands in the observation.
func (o Observation) Len() int {
	return len(o)
}
