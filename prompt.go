package effectdetect

// classificationInstruction is the fixed instruction attached to every clip.
// It enumerates the taxonomy so the model can only pick from known labels;
// prompt_test.go keeps it in sync with taxonomy.go.
const classificationInstruction = `Analyze this video clip and identify the primary video editing effect or transition used.

Classify the effect into ONE of these categories:
- hard_cut: Abrupt change between shots with no transition
- jump_cut: Cut within the same shot creating a visible skip in time
- crossfade: Gradual dissolve/fade from one shot to another
- whip_pan: Fast camera pan movement with motion blur
- zoom_cut: Quick zoom transition between shots
- speed_ramp: Speed change (slow motion or fast motion effect)
- shake_transition: Camera shake or vibration effect
- flash_frame: Brief white/black flash between shots
- reverse_effect: Reverse motion playback
- match_cut: Visual continuity cut matching objects/shapes
- unknown: No clear editing effect detected

Respond in JSON format:
{
    "effect": "category_name",
    "confidence": 0.85,
    "description": "Brief description of what you observed"
}

The confidence value must be a number between 0.0 and 1.0.
Only respond with valid JSON, no other text.`
