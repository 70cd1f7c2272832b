package effectdetect

// EffectLabel identifies one video editing effect category.
type EffectLabel string

// The fixed classification taxonomy. Every label surfaced to a caller is one of
// these values; EffectUnknown is the fallback when no category can be assigned
// with confidence.
const (
	EffectHardCut         EffectLabel = "hard_cut"
	EffectJumpCut         EffectLabel = "jump_cut"
	EffectCrossfade       EffectLabel = "crossfade"
	EffectWhipPan         EffectLabel = "whip_pan"
	EffectZoomCut         EffectLabel = "zoom_cut"
	EffectSpeedRamp       EffectLabel = "speed_ramp"
	EffectShakeTransition EffectLabel = "shake_transition"
	EffectFlashFrame      EffectLabel = "flash_frame"
	EffectReverseEffect   EffectLabel = "reverse_effect"
	EffectMatchCut        EffectLabel = "match_cut"

	EffectUnknown EffectLabel = "unknown"
)

// labelDef pairs a taxonomy label with the one-line description shown to the
// external model in the classification instruction.
type labelDef struct {
	Label EffectLabel
	Desc  string
}

// taxonomy is the ordered label set. The fallback label is last.
var taxonomy = []labelDef{
	{EffectHardCut, "Abrupt change between shots with no transition"},
	{EffectJumpCut, "Cut within the same shot creating a visible skip in time"},
	{EffectCrossfade, "Gradual dissolve/fade from one shot to another"},
	{EffectWhipPan, "Fast camera pan movement with motion blur"},
	{EffectZoomCut, "Quick zoom transition between shots"},
	{EffectSpeedRamp, "Speed change (slow motion or fast motion effect)"},
	{EffectShakeTransition, "Camera shake or vibration effect"},
	{EffectFlashFrame, "Brief white/black flash between shots"},
	{EffectReverseEffect, "Reverse motion playback"},
	{EffectMatchCut, "Visual continuity cut matching objects/shapes"},
	{EffectUnknown, "No clear editing effect detected"},
}

var labelSet = make(map[EffectLabel]struct{}, len(taxonomy))

func init() {
	for _, d := range taxonomy {
		labelSet[d.Label] = struct{}{}
	}
}

// Labels returns the fixed, ordered taxonomy including the fallback label.
// The returned slice is a copy; callers may modify it freely.
func Labels() []EffectLabel {
	out := make([]EffectLabel, len(taxonomy))
	for i, d := range taxonomy {
		out[i] = d.Label
	}
	return out
}

// IsValid reports whether l is a member of the taxonomy.
func (l EffectLabel) IsValid() bool {
	_, ok := labelSet[l]
	return ok
}

func (l EffectLabel) String() string {
	return string(l)
}
