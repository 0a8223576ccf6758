// Package tasks tracks the user's task list and which task is active.
package tasks

import (
	"fmt"

	"pomorix/internal/model"
)

// Selector holds the last known task list. It is owned by the UI event loop
// and is not safe for concurrent use.
type Selector struct {
	tasks []model.Task
}

func NewSelector() *Selector {
	return &Selector{}
}

// Replace swaps in a freshly fetched list and reports whether the active
// task changed identity.
func (s *Selector) Replace(list []model.Task) bool {
	before := s.activeID()
	s.tasks = append(s.tasks[:0:0], list...)
	return before != s.activeID()
}

func (s *Selector) Tasks() []model.Task {
	return s.tasks
}

// Active returns a copy of the active, not yet completed task.
func (s *Selector) Active() *model.Task {
	for i := range s.tasks {
		if s.tasks[i].IsActive && !s.tasks[i].IsCompleted {
			task := s.tasks[i]
			return &task
		}
	}
	return nil
}

// Activate marks id as the only active task, mirroring the service.
func (s *Selector) Activate(id string) {
	for i := range s.tasks {
		s.tasks[i].IsActive = s.tasks[i].ID == id
	}
}

// Upsert replaces a task by id or appends it.
func (s *Selector) Upsert(task model.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			if task.IsActive {
				s.Activate(task.ID)
			}
			return
		}
	}
	s.tasks = append(s.tasks, task)
	if task.IsActive {
		s.Activate(task.ID)
	}
}

func (s *Selector) Remove(id string) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

// RecordCompletion bumps the completed pomodoro count of a task locally
// until the next refetch brings the server's count.
func (s *Selector) RecordCompletion(taskID string) {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].CompletedPomodoros++
			return
		}
	}
}

// Progress formats completed/estimated pomodoros, e.g. "2/4".
func Progress(task model.Task) string {
	if task.EstimatedPomodoros <= 0 {
		return fmt.Sprintf("%d", task.CompletedPomodoros)
	}
	return fmt.Sprintf("%d/%d", task.CompletedPomodoros, task.EstimatedPomodoros)
}

func (s *Selector) activeID() string {
	if active := s.Active(); active != nil {
		return active.ID
	}
	return ""
}
