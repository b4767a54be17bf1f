package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode identifies how the active session measures time.
type Mode string

const (
	ModeTimer     Mode = "timer"
	ModeStopwatch Mode = "stopwatch"
	ModeBreak     Mode = "break"
)

// Session defaults, in minutes.
const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5
)

// FocusTask is a unit of work the user wants to focus on.
type FocusTask struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Mode          Mode      `json:"mode"`
	Duration      int       `json:"duration"`
	BreakDuration int       `json:"breakDuration"`
	Tags          []string  `json:"tags"`
	IsCompleted   bool      `json:"isCompleted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DurationSeconds returns the configured focus length in seconds.
func (task FocusTask) DurationSeconds() int {
	return task.Duration * 60
}

// BreakSeconds returns the configured break length in seconds.
func (task FocusTask) BreakSeconds() int {
	return task.BreakDuration * 60
}

// Normalize repairs a task record loaded from storage so that every field
// satisfies the data-model invariants. Returns true when a repair was made.
func (task *FocusTask) Normalize(now time.Time) bool {
	changed := false

	if task.Mode != ModeTimer && task.Mode != ModeStopwatch {
		task.Mode = ModeTimer
		changed = true
	}
	if task.Duration <= 0 {
		task.Duration = DefaultFocusMinutes
		changed = true
	}
	if task.BreakDuration <= 0 {
		task.BreakDuration = DefaultBreakMinutes
		changed = true
	}
	if strings.TrimSpace(task.Title) == "" {
		task.Title = fmt.Sprintf("Task %d", task.ID)
		changed = true
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
		changed = true
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
		changed = true
	}

	tags := CleanTags(task.Tags)
	if len(tags) != len(task.Tags) {
		changed = true
	}
	task.Tags = tags

	return changed
}

// CleanTags trims entries, drops blanks and removes duplicates while
// preserving order.
func CleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}
