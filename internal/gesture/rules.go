package gesture

import (
	"fmt"
	"sort"

	"github.com/ayusman/signalhand/internal/detector"
)

// Variant names a rule table.
type Variant string

const (
	// VariantPoses is the canonical table: named poses for one and two hands.
	VariantPoses Variant = "poses"
	// VariantFingerCount is the earlier finger-counting heuristic. It only
	// reads the first hand and uses a uniform 300 ms step.
	VariantFingerCount Variant = "fingercount"
)

// HandRule maps a single-hand condition to a label.
type HandRule struct {
	Label Label
	Delta int // step applied for adjust labels
	Match func(h *detector.Hand, sig Signature) bool
}

// PairRule maps a left/right pose combination to an adjust label.
type PairRule struct {
	Left  string // pose name for the left hand
	Right string // pose name for the right hand
	Label Label
	Delta int
}

// Table is a versioned set of rules. Rules are evaluated in order and the
// first match wins. A table without pair rules evaluates only the first hand
// of a two-hand frame.
type Table struct {
	Variant Variant
	Hand    []HandRule
	Pair    []PairRule
}

// signatureIs matches an exact extension signature.
func signatureIs(fingers ...Finger) func(*detector.Hand, Signature) bool {
	want := NewSignature(fingers...)
	return func(_ *detector.Hand, sig Signature) bool { return sig == want }
}

// countIs matches the number of extended fingers.
func countIs(n int) func(*detector.Hand, Signature) bool {
	return func(_ *detector.Hand, sig Signature) bool { return sig.Len() == n }
}

func pose(p Predicate) func(*detector.Hand, Signature) bool {
	return func(h *detector.Hand, _ Signature) bool { return p(h) }
}

// PosesTable is the canonical rule table.
var PosesTable = Table{
	Variant: VariantPoses,
	Hand: []HandRule{
		{Label: Emergency, Match: func(h *detector.Hand, sig Signature) bool {
			return IsOpenHand(h) || sig.Len() == len(Fingers)
		}},
		{Label: RedUp, Delta: 300, Match: signatureIs(Index, Middle)},
		{Label: RedDown, Delta: -300, Match: func(h *detector.Hand, sig Signature) bool {
			return IsOneFinger(h) && !sig.Has(Thumb)
		}},
		{Label: YellowUp, Delta: 200, Match: signatureIs(Thumb, Index)},
		{Label: YellowDown, Delta: -200, Match: signatureIs(Thumb)},
		{Label: GreenUp, Delta: 500, Match: signatureIs(Index, Pinky)},
		{Label: GreenDown, Delta: -500, Match: pose(IsFist)},
		{Label: Normal, Match: signatureIs(Index, Middle, Ring)},
		{Label: Blink, Match: signatureIs(Thumb, Pinky)},
		{Label: OnOff, Match: signatureIs(Index, Middle, Ring, Pinky)},
	},
	Pair: []PairRule{
		{Left: PoseFist, Right: PoseThumbUp, Label: RedUp, Delta: 300},
		{Left: PoseFist, Right: PoseThumbDown, Label: RedDown, Delta: -300},
		{Left: PoseFist, Right: PoseFist, Label: GreenDown, Delta: -500},
		{Left: PoseVSign, Right: PoseThumbUp, Label: YellowUp, Delta: 200},
		{Left: PoseVSign, Right: PoseThumbDown, Label: YellowDown, Delta: -200},
		{Left: PoseOpenHand, Right: PoseThumbUp, Label: GreenUp, Delta: 500},
		{Left: PoseOpenHand, Right: PoseThumbDown, Label: GreenDown, Delta: -500},
	},
}

// FingerCountTable is the finger-counting rule table.
var FingerCountTable = Table{
	Variant: VariantFingerCount,
	Hand: []HandRule{
		{Label: RedUp, Delta: 300, Match: signatureIs(Thumb, Index)},
		{Label: RedDown, Delta: -300, Match: signatureIs(Thumb)},
		{Label: YellowUp, Delta: 300, Match: signatureIs(Index, Middle)},
		{Label: YellowDown, Delta: -300, Match: signatureIs(Index)},
		{Label: GreenUp, Delta: 300, Match: signatureIs(Index, Pinky)},
		{Label: GreenDown, Delta: -300, Match: countIs(0)},
		{Label: Emergency, Match: countIs(5)},
		{Label: Normal, Match: countIs(3)},
		{Label: Blink, Match: signatureIs(Thumb, Pinky)},
		{Label: OnOff, Match: countIs(4)},
	},
}

// Variants lists the available variants.
func Variants() []Variant {
	return []Variant{VariantPoses, VariantFingerCount}
}

// LookupTable returns the rule table for a variant.
func LookupTable(v Variant) (Table, error) {
	switch v {
	case VariantPoses, "":
		return PosesTable, nil
	case VariantFingerCount:
		return FingerCountTable, nil
	}
	return Table{}, fmt.Errorf("unknown gesture variant %q", v)
}

// Validate checks that every pair rule names a registered pose and every
// adjust rule carries a step.
func (t Table) Validate() error {
	for _, r := range t.Hand {
		if r.Label.IsAdjust() && r.Delta == 0 {
			return fmt.Errorf("%s: rule %s has no step", t.Variant, r.Label)
		}
	}
	for _, r := range t.Pair {
		if _, ok := LookupPose(r.Left); !ok {
			return fmt.Errorf("%s: unknown pose %q", t.Variant, r.Left)
		}
		if _, ok := LookupPose(r.Right); !ok {
			return fmt.Errorf("%s: unknown pose %q", t.Variant, r.Right)
		}
		if !r.Label.IsAdjust() {
			return fmt.Errorf("%s: pair rule %s must adjust a duration", t.Variant, r.Label)
		}
	}
	return nil
}

// leftRight orders two hands by wrist x; the smaller x is the left hand.
func leftRight(a, b *detector.Hand) (left, right *detector.Hand) {
	hands := []*detector.Hand{a, b}
	sort.SliceStable(hands, func(i, j int) bool {
		return hands[i].Points[detector.Wrist].X < hands[j].Points[detector.Wrist].X
	})
	return hands[0], hands[1]
}
