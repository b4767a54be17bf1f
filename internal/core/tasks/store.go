// Package tasks holds the persisted collection of focus tasks. The store is
// synchronous and local: every mutation re-sorts the list and writes it back
// to storage before returning.
package tasks

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/core/model"
	"focusdeck/internal/storage"
)

// StorageKey is the canonical task-list key. LegacyKeys are older locations
// that are migrated into the canonical key on first load.
const StorageKey = "focus.tasks"

// LegacyKeys in priority order after the canonical key.
var LegacyKeys = []string{"focus-tasks", "tasks"}

// ErrTaskNotFound indicates the id does not exist in the store.
var ErrTaskNotFound = errors.New("tasks: task not found")

// Draft carries the user-editable fields of a task.
type Draft struct {
	Title         string
	Mode          model.Mode
	Duration      int
	BreakDuration int
	Tags          []string
}

// Store is the task collection service.
type Store struct {
	mu       sync.Mutex
	kv       storage.Store
	log      hclog.Logger
	now      func() time.Time
	tasks    []model.FocusTask
	onChange func()
}

// NewStore creates an empty store backed by the given key-value storage.
func NewStore(kv storage.Store, log hclog.Logger) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Store{kv: kv, log: log, now: time.Now}
}

// SetOnChange registers a hook invoked after every mutation, outside the
// store lock. Used to republish the runtime snapshot.
func (store *Store) SetOnChange(hook func()) {
	store.mu.Lock()
	store.onChange = hook
	store.mu.Unlock()
}

// Load reads the persisted task list, migrating from legacy keys and
// normalizing records. Read or parse failures degrade to an empty list.
func (store *Store) Load() {
	candidates := make([]Candidate, 0, len(LegacyKeys)+1)
	for _, key := range append([]string{StorageKey}, LegacyKeys...) {
		var raw json.RawMessage
		if err := store.kv.Get(key, &raw); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				store.log.Warn("read task list", "key", key, "error", err)
			}
			continue
		}
		candidates = append(candidates, Candidate{Key: key, Raw: raw})
	}

	store.mu.Lock()
	loaded, rewrite := Migrate(candidates, StorageKey, store.now())
	store.tasks = loaded
	if rewrite {
		store.persistLocked()
	}
	store.mu.Unlock()
	store.log.Debug("task list loaded", "count", len(loaded), "rewritten", rewrite)
}

// List returns a sorted copy of all tasks.
func (store *Store) List() []model.FocusTask {
	store.mu.Lock()
	defer store.mu.Unlock()
	return append([]model.FocusTask(nil), store.tasks...)
}

// Get returns the task with the given id.
func (store *Store) Get(id int) (model.FocusTask, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, task := range store.tasks {
		if task.ID == id {
			return task, true
		}
	}
	return model.FocusTask{}, false
}

// FirstIncomplete returns the highest-priority incomplete task. With the
// sort invariant in place that is simply the head of the list.
func (store *Store) FirstIncomplete() (model.FocusTask, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.tasks) > 0 && !store.tasks[0].IsCompleted {
		return store.tasks[0], true
	}
	return model.FocusTask{}, false
}

// Create adds a new task from the draft and persists the list.
func (store *Store) Create(draft Draft) model.FocusTask {
	store.mu.Lock()
	now := store.now()
	task := model.FocusTask{
		ID:            store.nextIDLocked(),
		Title:         draft.Title,
		Mode:          draft.Mode,
		Duration:      draft.Duration,
		BreakDuration: draft.BreakDuration,
		Tags:          draft.Tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	task.Normalize(now)
	store.tasks = append(store.tasks, task)
	sortTasks(store.tasks)
	store.persistLocked()
	store.mu.Unlock()

	store.notify()
	return task
}

// Update applies the draft to an existing task, preserving id, creation time
// and completion state, and refreshing the update time.
func (store *Store) Update(id int, draft Draft) (model.FocusTask, error) {
	store.mu.Lock()
	index := store.indexLocked(id)
	if index < 0 {
		store.mu.Unlock()
		return model.FocusTask{}, ErrTaskNotFound
	}
	now := store.now()
	task := store.tasks[index]
	task.Title = draft.Title
	task.Mode = draft.Mode
	task.Duration = draft.Duration
	task.BreakDuration = draft.BreakDuration
	task.Tags = draft.Tags
	task.UpdatedAt = now
	task.Normalize(now)
	store.tasks[index] = task
	sortTasks(store.tasks)
	store.persistLocked()
	store.mu.Unlock()

	store.notify()
	return task, nil
}

// SetCompleted flips the completion flag and re-sorts the list.
func (store *Store) SetCompleted(id int, completed bool) error {
	store.mu.Lock()
	index := store.indexLocked(id)
	if index < 0 {
		store.mu.Unlock()
		return ErrTaskNotFound
	}
	store.tasks[index].IsCompleted = completed
	store.tasks[index].UpdatedAt = store.now()
	sortTasks(store.tasks)
	store.persistLocked()
	store.mu.Unlock()

	store.notify()
	return nil
}

// Delete removes the task with the given id.
func (store *Store) Delete(id int) error {
	store.mu.Lock()
	index := store.indexLocked(id)
	if index < 0 {
		store.mu.Unlock()
		return ErrTaskNotFound
	}
	store.tasks = append(store.tasks[:index], store.tasks[index+1:]...)
	store.persistLocked()
	store.mu.Unlock()

	store.notify()
	return nil
}

func (store *Store) indexLocked(id int) int {
	for index, task := range store.tasks {
		if task.ID == id {
			return index
		}
	}
	return -1
}

func (store *Store) nextIDLocked() int {
	maxID := 0
	for _, task := range store.tasks {
		if task.ID > maxID {
			maxID = task.ID
		}
	}
	return maxID + 1
}

func (store *Store) persistLocked() {
	if err := store.kv.Set(StorageKey, store.tasks); err != nil {
		store.log.Warn("persist task list", "error", err)
	}
}

func (store *Store) notify() {
	store.mu.Lock()
	hook := store.onChange
	store.mu.Unlock()
	if hook != nil {
		hook()
	}
}
