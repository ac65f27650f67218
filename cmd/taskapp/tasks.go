package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/jaekwang-park/taskapp/internal/model"
	"github.com/jaekwang-park/taskapp/internal/service"
	"github.com/jaekwang-park/taskapp/internal/taskview"
)

type taskFlags struct {
	fs       *flag.FlagSet
	title    *string
	desc     *string
	status   *string
	priority *string
	due      *string
}

func newTaskFlags(name string, c *cli) *taskFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return &taskFlags{
		fs:       fs,
		title:    fs.String("title", "", "task title"),
		desc:     fs.String("desc", "", "description"),
		status:   fs.String("status", "", "todo, in-progress or completed"),
		priority: fs.String("priority", "", "low, medium or high"),
		due:      fs.String("due", "", "due date, YYYY-MM-DD"),
	}
}

// set reports which flags were given explicitly.
func (t *taskFlags) set() map[string]bool {
	seen := map[string]bool{}
	t.fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	return seen
}

func (c *cli) tasks(ctx context.Context, args []string) error {
	userID, err := c.requireUser()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return c.listTasks(ctx, userID)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return c.listTasks(ctx, userID)
	case "add":
		return c.addTask(ctx, userID, rest)
	case "edit":
		return c.editTask(ctx, userID, rest)
	case "delete":
		return c.deleteTask(ctx, userID, rest)
	default:
		fmt.Fprintf(c.errOut, "unknown tasks command %q\n", sub)
		return errReported
	}
}

func (c *cli) listTasks(ctx context.Context, userID string) error {
	tasks, err := c.app.Tasks.List(ctx, userID)
	if err != nil {
		return c.fail(err)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(c.out, "no tasks")
		return nil
	}
	for _, t := range tasks {
		item := taskview.NewItem(t, c.app.Catalog, nil, taskview.Handlers{})
		fmt.Fprintf(c.out, "%s  %s", t.ID, item.Render())
	}
	return nil
}

func (c *cli) addTask(ctx context.Context, userID string, args []string) error {
	tf := newTaskFlags("tasks add", c)
	if err := tf.fs.Parse(args); err != nil {
		return errReported
	}

	created, err := c.app.Tasks.Create(ctx, userID, service.CreateTaskInput{
		Title:       *tf.title,
		Description: *tf.desc,
		Status:      model.TaskStatus(*tf.status),
		Priority:    model.TaskPriority(*tf.priority),
		DueDate:     *tf.due,
	})
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "%s  %s", created.ID, taskview.NewItem(created, c.app.Catalog, nil, taskview.Handlers{}).Render())
	return nil
}

// parseIDThenFlags accepts the task id before or after the flags.
func parseIDThenFlags(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", errors.New("task id is required")
	}
	return id, nil
}

func (c *cli) loadItem(ctx context.Context, userID, id string, confirm taskview.Confirmer, h taskview.Handlers) (*taskview.Item, error) {
	task, err := c.app.Tasks.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return taskview.NewItem(task, c.app.Catalog, confirm, h), nil
}

func (c *cli) editTask(ctx context.Context, userID string, args []string) error {
	tf := newTaskFlags("tasks edit", c)
	id, err := parseIDThenFlags(tf.fs, args)
	if err != nil {
		fmt.Fprintln(c.errOut, err)
		return errReported
	}

	seen := tf.set()
	var input service.UpdateTaskInput
	if seen["title"] {
		input.Title = tf.title
	}
	if seen["desc"] {
		input.Description = tf.desc
	}
	if seen["status"] {
		s := model.TaskStatus(*tf.status)
		input.Status = &s
	}
	if seen["priority"] {
		p := model.TaskPriority(*tf.priority)
		input.Priority = &p
	}
	if seen["due"] {
		input.DueDate = tf.due
	}

	var updated model.Task
	item, err := c.loadItem(ctx, userID, id, nil, taskview.Handlers{
		OnEdit: func(task model.Task) error {
			var err error
			updated, err = c.app.Tasks.Update(ctx, userID, task.ID, input)
			return err
		},
	})
	if err != nil {
		return c.fail(err)
	}
	if err := item.Edit(); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "%s  %s", updated.ID, taskview.NewItem(updated, c.app.Catalog, nil, taskview.Handlers{}).Render())
	return nil
}

func (c *cli) deleteTask(ctx context.Context, userID string, args []string) error {
	fs := flag.NewFlagSet("tasks delete", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	id, err := parseIDThenFlags(fs, args)
	if err != nil {
		fmt.Fprintln(c.errOut, err)
		return errReported
	}

	confirm := taskview.ConfirmFunc(func(prompt string) bool {
		if *yes {
			return true
		}
		answer := c.in.ask(c.out, prompt+" [y/N] ")
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	})
	item, err := c.loadItem(ctx, userID, id, confirm, taskview.Handlers{
		OnDelete: func(id string) error {
			return c.app.Tasks.Delete(ctx, userID, id)
		},
	})
	if err != nil {
		return c.fail(err)
	}

	deleted, err := item.Delete()
	if err != nil {
		return c.fail(err)
	}
	if !deleted {
		fmt.Fprintln(c.out, "kept")
		return nil
	}
	fmt.Fprintln(c.out, "deleted", id)
	return nil
}
