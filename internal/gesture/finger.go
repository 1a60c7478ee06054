// Package gesture turns hand landmarks into discrete traffic-light control gestures.
//
// Classification is split into three stages: finger extension and pose
// predicates over a single hand, a resolver that picks at most one label per
// frame from a versioned rule table, and a debounce transition that decides
// whether a mode label fires.
package gesture

import (
	"strconv"
	"strings"

	"github.com/ayusman/signalhand/internal/detector"
)

// Finger identifies a finger in an extension signature.
// Ring and pinky are 4 and 6; there is no finger 5.
type Finger int

const (
	Thumb  Finger = 1
	Index  Finger = 2
	Middle Finger = 3
	Ring   Finger = 4
	Pinky  Finger = 6
)

// Fingers lists all fingers in anatomical order.
var Fingers = []Finger{Thumb, Index, Middle, Ring, Pinky}

// tipIndex maps each finger to its tip landmark.
var tipIndex = map[Finger]int{
	Thumb:  detector.ThumbTip,
	Index:  detector.IndexTip,
	Middle: detector.MiddleTip,
	Ring:   detector.RingTip,
	Pinky:  detector.PinkyTip,
}

// Signature is the set of fingers judged extended for one hand.
type Signature uint8

// NewSignature builds a signature from the given fingers.
func NewSignature(fingers ...Finger) Signature {
	var s Signature
	for _, f := range fingers {
		s |= 1 << uint(f)
	}
	return s
}

// Has reports whether f is in the signature.
func (s Signature) Has(f Finger) bool {
	return s&(1<<uint(f)) != 0
}

// Len returns the number of extended fingers.
func (s Signature) Len() int {
	n := 0
	for _, f := range Fingers {
		if s.Has(f) {
			n++
		}
	}
	return n
}

// Fingers returns the extended fingers in anatomical order.
func (s Signature) Fingers() []Finger {
	var out []Finger
	for _, f := range Fingers {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// String formats the signature as "{1,2}".
func (s Signature) String() string {
	parts := make([]string, 0, 5)
	for _, f := range s.Fingers() {
		parts = append(parts, strconv.Itoa(int(f)))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ExtendedFingers returns the set of extended fingers of a hand.
//
// The thumb is extended when its tip lies to the right of its IP joint.
// The other fingers are extended when the tip is above (smaller y than) the
// PIP joint two landmarks back.
func ExtendedFingers(h *detector.Hand) Signature {
	var s Signature
	if h == nil {
		return s
	}
	p := &h.Points
	if p[detector.ThumbTip].X > p[detector.ThumbIP].X {
		s |= NewSignature(Thumb)
	}
	for _, f := range []Finger{Index, Middle, Ring, Pinky} {
		tip := tipIndex[f]
		if p[tip].Y < p[tip-2].Y {
			s |= NewSignature(f)
		}
	}
	return s
}
