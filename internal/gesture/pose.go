package gesture

import (
	"math"

	"github.com/ayusman/signalhand/internal/detector"
)

// Pose thresholds in pixels.
const (
	// FoldSlack is how far below its PIP joint a fingertip must sit to count as folded into a fist.
	FoldSlack = 10.0
	// ThumbCurlReach is the largest thumb tip to IP distance accepted for a tucked thumb.
	ThumbCurlReach = 60.0
	// VSpreadRatio is the minimum ratio of index-middle tip separation to MCP separation for a V sign.
	VSpreadRatio = 1.2
)

// Predicate reports whether a hand is in a given pose.
type Predicate func(h *detector.Hand) bool

// Pose is a named predicate.
type Pose struct {
	Name  string
	Match Predicate
}

// Pose names.
const (
	PoseFist      = "fist"
	PoseOpenHand  = "open_hand"
	PoseVSign     = "v_sign"
	PoseThumbUp   = "thumb_up"
	PoseThumbDown = "thumb_down"
	PoseOneFinger = "one_finger"
)

// Poses is the table of pose predicates, in evaluation order.
var Poses = []Pose{
	{Name: PoseFist, Match: IsFist},
	{Name: PoseOpenHand, Match: IsOpenHand},
	{Name: PoseVSign, Match: IsVSign},
	{Name: PoseThumbUp, Match: IsThumbUp},
	{Name: PoseThumbDown, Match: IsThumbDown},
	{Name: PoseOneFinger, Match: IsOneFinger},
}

// LookupPose returns the predicate registered under name.
func LookupPose(name string) (Predicate, bool) {
	for _, p := range Poses {
		if p.Name == name {
			return p.Match, true
		}
	}
	return nil, false
}

// MatchPoses returns the names of all poses the hand satisfies, in table order.
func MatchPoses(h *detector.Hand) []string {
	if h == nil {
		return nil
	}
	var names []string
	for _, p := range Poses {
		if p.Match(h) {
			names = append(names, p.Name)
		}
	}
	return names
}

// folded reports whether the finger with the given tip is bent below its PIP joint.
func folded(h *detector.Hand, tip int) bool {
	return h.Points[tip].Y >= h.Points[tip-2].Y
}

// IsFist reports a closed fist: all four fingertips folded past their PIP
// joints by more than FoldSlack, and the thumb tucked toward the palm.
func IsFist(h *detector.Hand) bool {
	p := &h.Points
	for _, tip := range []int{detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip} {
		if p[tip].Y <= p[tip-2].Y+FoldSlack {
			return false
		}
	}
	if p[detector.ThumbTip].X >= p[detector.ThumbMCP].X {
		return false
	}
	return detector.Distance(p[detector.ThumbTip], p[detector.ThumbIP]) < ThumbCurlReach
}

// IsOpenHand reports all five fingertips above the joint two landmarks back.
func IsOpenHand(h *detector.Hand) bool {
	p := &h.Points
	for _, tip := range []int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip} {
		if p[tip].Y >= p[tip-2].Y {
			return false
		}
	}
	return true
}

// IsVSign reports index and middle tips spread wider than their bases with the ring finger folded.
// Both index and middle must be up; a single raised index also spreads the tips.
func IsVSign(h *detector.Hand) bool {
	p := &h.Points
	if folded(h, detector.IndexTip) || folded(h, detector.MiddleTip) {
		return false
	}
	tips := detector.Distance(p[detector.IndexTip], p[detector.MiddleTip])
	bases := detector.Distance(p[detector.IndexMCP], p[detector.MiddleMCP])
	return tips > VSpreadRatio*bases && folded(h, detector.RingTip)
}

// IsThumbUp reports a near-vertical thumb pointing up past the index base.
func IsThumbUp(h *detector.Hand) bool {
	p := &h.Points
	tip, base := p[detector.ThumbTip], p[detector.ThumbMCP]
	return tip.Y < base.Y && tip.Y < p[detector.IndexMCP].Y && nearVertical(tip, base)
}

// IsThumbDown reports a near-vertical thumb pointing down past the index base.
func IsThumbDown(h *detector.Hand) bool {
	p := &h.Points
	tip, base := p[detector.ThumbTip], p[detector.ThumbMCP]
	return tip.Y > base.Y && tip.Y > p[detector.IndexMCP].Y && nearVertical(tip, base)
}

// nearVertical reports that the segment leans less than 45 degrees from vertical.
func nearVertical(tip, base detector.Point) bool {
	return math.Abs(tip.X-base.X) < math.Abs(tip.Y-base.Y)
}

// IsOneFinger reports the index finger extended with middle, ring and pinky folded.
func IsOneFinger(h *detector.Hand) bool {
	return !folded(h, detector.IndexTip) &&
		folded(h, detector.MiddleTip) &&
		folded(h, detector.RingTip) &&
		folded(h, detector.PinkyTip)
}
