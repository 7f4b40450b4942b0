// Package taskform is the interactive form for entering a task by hand.
package taskform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/ops-board/internal/model"
)

// Values holds the form fields. huh writes through pointers into it, so it
// must outlive the form.
type Values struct {
	Name       string
	Status     model.Status
	Category   model.Category
	NextAction string
	Due        string
	Channel    model.Channel
	EstMin     string
	Note       string
}

// NewValues returns the defaults shown in an empty form.
func NewValues() *Values {
	return &Values{Status: model.StatusReady}
}

// Build converts the entered values into a task and its metadata.
func (v Values) Build() (model.Task, model.TaskMeta, error) {
	if err := validateRequired("Name")(v.Name); err != nil {
		return model.Task{}, model.TaskMeta{}, err
	}

	task := model.Task{
		TaskName:    strings.TrimSpace(v.Name),
		Status:      v.Status,
		Category:    v.Category,
		NextActions: []string{},
	}
	if a := strings.TrimSpace(v.NextAction); a != "" {
		task.NextActions = []string{a}
	}

	meta := model.TaskMeta{
		Channel: v.Channel,
		Note:    strings.TrimSpace(v.Note),
	}
	if due := strings.TrimSpace(v.Due); due != "" {
		d, err := model.ParseDate(due)
		if err != nil {
			return model.Task{}, model.TaskMeta{}, fmt.Errorf("due date: %w", err)
		}
		meta.Due = &d
	}
	if est := strings.TrimSpace(v.EstMin); est != "" {
		n, err := strconv.Atoi(est)
		if err != nil || n < 0 {
			return model.Task{}, model.TaskMeta{}, fmt.Errorf("estimate must be a whole number of minutes")
		}
		meta.EstMin = n
	}

	return task, meta, nil
}

// NewForm builds the task entry form bound to v.
func NewForm(v *Values) *huh.Form {
	statusOpts := make([]huh.Option[model.Status], 0, len(model.Statuses()))
	for _, s := range model.Statuses() {
		statusOpts = append(statusOpts, huh.NewOption(s.Label(), s))
	}

	categoryOpts := []huh.Option[model.Category]{huh.NewOption("Unspecified", model.Category(""))}
	for _, c := range model.Categories() {
		categoryOpts = append(categoryOpts, huh.NewOption(c.Label(), c))
	}

	channelOpts := []huh.Option[model.Channel]{huh.NewOption("None", model.Channel(""))}
	for _, c := range model.Channels() {
		channelOpts = append(channelOpts, huh.NewOption(string(c), c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Placeholder("What needs to happen?").
				Value(&v.Name).
				Validate(validateRequired("Task")),
			huh.NewSelect[model.Status]().
				Title("Status").
				Options(statusOpts...).
				Value(&v.Status),
			huh.NewSelect[model.Category]().
				Title("Category").
				Options(categoryOpts...).
				Value(&v.Category),
			huh.NewInput().
				Title("Next action").
				Placeholder("Optional").
				Value(&v.NextAction),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Due date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&v.Due).
				Validate(validateOptionalDate),
			huh.NewSelect[model.Channel]().
				Title("Channel").
				Options(channelOpts...).
				Value(&v.Channel),
			huh.NewInput().
				Title("Estimate (minutes)").
				Placeholder("Optional").
				Value(&v.EstMin).
				Validate(validateOptionalMinutes),
			huh.NewText().
				Title("Note").
				Placeholder("Optional details...").
				Value(&v.Note),
		),
	)
}

// Run shows the form on the terminal and returns the entered task.
func Run(ctx context.Context) (model.Task, model.TaskMeta, error) {
	v := NewValues()
	if err := NewForm(v).RunWithContext(ctx); err != nil {
		return model.Task{}, model.TaskMeta{}, err
	}
	return v.Build()
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := model.ParseDate(s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalMinutes(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of minutes")
	}
	return nil
}
