// Package taskview renders a single task and relays the user's edit and
// delete intents for it.
package taskview

import (
	"fmt"
	"strings"

	"github.com/jaekwang-park/taskapp/internal/locale"
	"github.com/jaekwang-park/taskapp/internal/model"
)

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type Handlers struct {
	OnEdit   func(task model.Task) error
	OnDelete func(id string) error
}

type Item struct {
	task     model.Task
	catalog  locale.Catalog
	confirm  Confirmer
	handlers Handlers
}

func NewItem(task model.Task, c locale.Catalog, confirm Confirmer, h Handlers) *Item {
	return &Item{task: task, catalog: c, confirm: confirm, handlers: h}
}

func (it *Item) Task() model.Task { return it.task }

// Edit hands the whole task to the edit handler.
func (it *Item) Edit() error {
	if it.handlers.OnEdit == nil {
		return nil
	}
	return it.handlers.OnEdit(it.task)
}

// Delete asks for confirmation first and reports whether the delete
// handler ran.
func (it *Item) Delete() (bool, error) {
	prompt := fmt.Sprintf(it.catalog.ConfirmDelete, it.task.Title)
	if it.confirm == nil || !it.confirm.Confirm(prompt) {
		return false, nil
	}
	if it.handlers.OnDelete == nil {
		return false, nil
	}
	return true, it.handlers.OnDelete(it.task.ID)
}

// StatusLabel maps a status to its label; unknown values pass through.
func StatusLabel(s model.TaskStatus, c locale.Catalog) string {
	if l, ok := c.StatusLabels[string(s)]; ok {
		return l
	}
	return string(s)
}

func PriorityLabel(p model.TaskPriority, c locale.Catalog) string {
	if l, ok := c.PriorityLabels[string(p)]; ok {
		return l
	}
	return string(p)
}

// DueLabel formats the due date as a calendar date in the catalog layout.
// A value that does not parse is shown as stored.
func DueLabel(t model.Task, c locale.Catalog) string {
	d, ok := t.Due()
	if !ok {
		return t.DueDate
	}
	return d.Format(c.DateLayout)
}

func (it *Item) Render() string {
	c := it.catalog
	var b strings.Builder

	b.WriteString(it.task.Title)
	b.WriteByte('\n')
	if it.task.Description != "" {
		fmt.Fprintf(&b, "  %s\n", it.task.Description)
	}

	meta := []string{
		"[" + StatusLabel(it.task.Status, c) + "]",
		fmt.Sprintf("%s: %s", c.PriorityPrefix, PriorityLabel(it.task.Priority, c)),
	}
	if it.task.DueDate != "" {
		meta = append(meta, fmt.Sprintf("%s: %s", c.DueDatePrefix, DueLabel(it.task, c)))
	}
	fmt.Fprintf(&b, "  %s\n", strings.Join(meta, "  "))
	return b.String()
}
