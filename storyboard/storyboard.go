// Package storyboard implements the storyboard engine: script→scene list
// synthesis, scene validation, and versioning.
package storyboard

import (
	"context"
	"encoding/json"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/video"
)

// LLM is the capability this engine depends on (spec.md §4.1). Storyboard
// takes ctx so the caller can enforce a timeout/retry policy around the
// call (spec.md §4.6, §5).
type LLM interface {
	Storyboard(ctx context.Context, script string) (string, error)
}

// Generate invokes the LLM, parses and validates its JSON scene list
// against the shape invariants in video.Storyboard.Validate, and returns
// the typed storyboard. Precondition checking (status ∈
// {script_generated, script_approved}) and the status write are the
// caller's responsibility (the api package's HTTP handlers).
func Generate(ctx context.Context, llm LLM, scriptText string) (video.Storyboard, error) {
	raw, err := llm.Storyboard(ctx, scriptText)
	if err != nil {
		return video.Storyboard{}, err
	}

	var sb video.Storyboard
	if err := json.Unmarshal([]byte(raw), &sb); err != nil {
		return video.Storyboard{}, xerrors.New(xerrors.KindBadOutput, err)
	}
	for i := range sb.Scenes {
		sb.Scenes[i].Index = i
	}
	if err := sb.Validate(); err != nil {
		return video.Storyboard{}, xerrors.New(xerrors.KindBadOutput, err)
	}
	return sb, nil
}

// NextVersion returns the storyboard_version to write: 1 on first
// generation, incremented on regeneration.
func NextVersion(current int) int {
	if current <= 0 {
		return 1
	}
	return current + 1
}

// MarkSceneDirty appends index to dirtyScenes if not already present; no
// status change accompanies this (spec.md §4.7).
func MarkSceneDirty(dirtyScenes []int, index int) []int {
	for _, d := range dirtyScenes {
		if d == index {
			return dirtyScenes
		}
	}
	return append(dirtyScenes, index)
}
