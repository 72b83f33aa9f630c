package video

// Scene is one ordered storyboard element.
type Scene struct {
	Index            int     `json:"index"`
	Description      string  `json:"description"`
	ImagePrompt      string  `json:"image_prompt"`
	DurationSeconds  float64 `json:"duration_seconds"`
	PlaceholderUsed  bool    `json:"placeholder_used,omitempty"`
	PlaceholderCause string  `json:"reason,omitempty"`
}

// Storyboard is the ordered sequence of scenes synthesized from a script.
type Storyboard struct {
	Scenes []Scene `json:"scenes"`
}

// TotalDuration returns the sum of every scene's DurationSeconds.
func (sb Storyboard) TotalDuration() float64 {
	var total float64
	for _, s := range sb.Scenes {
		total += s.DurationSeconds
	}
	return total
}

// Validate enforces the storyboard engine's shape invariants: 5-8 scenes,
// each with non-empty description/image_prompt and a positive duration.
func (sb Storyboard) Validate() error {
	if len(sb.Scenes) < MinScenes || len(sb.Scenes) > MaxScenes {
		return ErrInvalidSceneCount
	}
	for i, s := range sb.Scenes {
		if s.Description == "" {
			return fieldError(i, "description")
		}
		if s.ImagePrompt == "" {
			return fieldError(i, "image_prompt")
		}
		if s.DurationSeconds <= 0 {
			return fieldError(i, "duration_seconds")
		}
	}
	return nil
}

const (
	MinScenes          = 5
	MaxScenes          = 8
	MaxStoryboardTotal = 45.0 // seconds
)
