package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	SelectSongs Phase = iota
	PublishPhotos
)

func (p Phase) String() string {
	switch p {
	case SelectSongs:
		return "select_songs"
	case PublishPhotos:
		return "publish_photos"
	default:
		return ""
	}
}

func queuedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectSongs,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Publishing %d photos...", total),
	}
}

func publishedUpdate(step, total int, res SongPublishResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PublishPhotos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ song %d: %s", step, total, res.SongID, res.URL),
		Data:    res,
	}
}

func publishFailedUpdate(step, total int, res SongPublishResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PublishPhotos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ song %d: %v", step, total, res.SongID, res.Err),
		Data:    res,
	}
}
