package tasks

import (
	"encoding/json"
	"sort"
	"time"

	"focusdeck/internal/core/model"
)

// Candidate is one storage location a task list may live under: the key it
// was read from and the raw value found there, in priority order (canonical
// key first, legacy aliases after).
type Candidate struct {
	Key string
	Raw json.RawMessage
}

// Migrate resolves the persisted task list from a set of storage candidates.
// The first candidate that parses to a non-empty list wins; every record is
// normalized (clamped numeric fields, placeholder titles, deduplicated tags,
// defaulted timestamps, reassigned ids) and the result is sorted into the
// store invariant. The second result reports whether the canonical key must
// be rewritten: true when the winner was a legacy key or any record needed
// repair.
func Migrate(candidates []Candidate, canonicalKey string, now time.Time) ([]model.FocusTask, bool) {
	for _, candidate := range candidates {
		if len(candidate.Raw) == 0 {
			continue
		}
		var loaded []model.FocusTask
		if err := json.Unmarshal(candidate.Raw, &loaded); err != nil {
			continue
		}
		if len(loaded) == 0 {
			continue
		}

		rewrite := candidate.Key != canonicalKey
		if normalizeAll(loaded, now) {
			rewrite = true
		}
		sortTasks(loaded)
		return loaded, rewrite
	}
	return nil, false
}

// normalizeAll repairs every record and guarantees unique positive ids.
func normalizeAll(loaded []model.FocusTask, now time.Time) bool {
	changed := false

	maxID := 0
	for _, task := range loaded {
		if task.ID > maxID {
			maxID = task.ID
		}
	}
	seen := make(map[int]struct{}, len(loaded))
	for index := range loaded {
		task := &loaded[index]
		if task.ID <= 0 {
			maxID++
			task.ID = maxID
			changed = true
		} else if _, dup := seen[task.ID]; dup {
			maxID++
			task.ID = maxID
			changed = true
		}
		seen[task.ID] = struct{}{}

		if task.Normalize(now) {
			changed = true
		}
	}
	return changed
}

// sortTasks applies the store invariant: incomplete tasks before completed
// ones, and within each group most-recently-created first.
func sortTasks(list []model.FocusTask) {
	sort.SliceStable(list, func(left, right int) bool {
		if list[left].IsCompleted != list[right].IsCompleted {
			return !list[left].IsCompleted
		}
		return list[left].CreatedAt.After(list[right].CreatedAt)
	})
}
