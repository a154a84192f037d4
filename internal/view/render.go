// Package view renders tasks, users and notices for a terminal, or as JSON
// or YAML for scripts.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"go-todo-client/internal/model"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", raw)
	}
}

var (
	colorVeryHigh = lipgloss.Color("#d16d7a")
	colorMedium   = lipgloss.Color("#f39c12")
	colorLow      = lipgloss.Color("#5f9fb0")
	colorMuted    = lipgloss.Color("#6c757d")
	colorSuccess  = lipgloss.Color("#2e8b57")
)

type taskRow struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Priority    int    `json:"priority" yaml:"priority"`
	Urgency     string `json:"urgency" yaml:"urgency"`
	Completed   bool   `json:"completed" yaml:"completed"`
	OwnerID     int64  `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
}

type userRow struct {
	ID        int64  `json:"id" yaml:"id"`
	Username  string `json:"username" yaml:"username"`
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Role      string `json:"role" yaml:"role"`
}

type Renderer struct {
	w        io.Writer
	format   Format
	renderer *lipgloss.Renderer
}

// NewRenderer writes to w. Colors are used only when w is a terminal that
// supports them.
func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format, renderer: lipgloss.NewRenderer(w)}
}

func (r *Renderer) Format() Format {
	return r.format
}

// Tasks prints tasks in order. The owner column appears when withOwner is set.
func (r *Renderer) Tasks(tasks []model.Task, withOwner bool) error {
	rows := make([]taskRow, 0, len(tasks))
	for _, task := range tasks {
		row := taskRow{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			Priority:    task.Priority,
			Urgency:     model.Urgency(task.Priority),
			Completed:   task.Completed,
		}
		if withOwner {
			row.OwnerID = task.OwnerID
		}
		rows = append(rows, row)
	}

	if r.format != FormatTable {
		return r.encode(rows)
	}

	if len(rows) == 0 {
		return r.line(r.renderer.NewStyle().Foreground(colorMuted), "No todos.")
	}

	headers := []string{"ID", "TITLE", "DESCRIPTION", "PRIORITY", "DONE"}
	if withOwner {
		headers = append(headers, "OWNER")
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		done := "[ ]"
		if row.Completed {
			done = "[x]"
		}
		cell := []string{
			strconv.FormatInt(row.ID, 10),
			row.Title,
			row.Description,
			fmt.Sprintf("%d %s", row.Priority, row.Urgency),
			done,
		}
		if withOwner {
			cell = append(cell, strconv.FormatInt(row.OwnerID, 10))
		}
		cells = append(cells, cell)
	}

	base := r.renderer.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.renderer.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return base.Bold(true)
			}
			if row < 0 || row >= len(rows) {
				return base
			}
			if rows[row].Completed {
				return base.Foreground(colorMuted).Strikethrough(col == 1)
			}
			if col == 3 {
				return base.Foreground(urgencyColor(rows[row].Priority))
			}
			return base
		})

	_, err := fmt.Fprintln(r.w, t.Render())
	return err
}

func (r *Renderer) Task(task model.Task) error {
	if r.format != FormatTable {
		return r.encode(taskRow{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			Priority:    task.Priority,
			Urgency:     model.Urgency(task.Priority),
			Completed:   task.Completed,
			OwnerID:     task.OwnerID,
		})
	}
	return r.Tasks([]model.Task{task}, false)
}

func (r *Renderer) User(user model.User) error {
	row := userRow{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
	}
	if r.format != FormatTable {
		return r.encode(row)
	}

	label := r.renderer.NewStyle().Foreground(colorMuted).Width(12)
	lines := []string{
		label.Render("Username") + row.Username,
		label.Render("Name") + strings.TrimSpace(row.FirstName+" "+row.LastName),
		label.Render("Email") + row.Email,
		label.Render("Role") + row.Role,
	}
	_, err := fmt.Fprintln(r.w, strings.Join(lines, "\n"))
	return err
}

// Message prints a one-line notice. Structured formats get it as an object
// so stdout stays parseable.
func (r *Renderer) Message(message string, isError bool) error {
	if r.format != FormatTable {
		return r.encode(map[string]any{"message": message, "error": isError})
	}

	style := r.renderer.NewStyle().Foreground(colorSuccess)
	if isError {
		style = r.renderer.NewStyle().Foreground(colorVeryHigh)
	}
	return r.line(style, message)
}

// Value encodes v for the structured formats and prints it with %v for table.
func (r *Renderer) Value(v any) error {
	if r.format != FormatTable {
		return r.encode(v)
	}
	_, err := fmt.Fprintf(r.w, "%v\n", v)
	return err
}

func (r *Renderer) line(style lipgloss.Style, text string) error {
	_, err := fmt.Fprintln(r.w, style.Render(text))
	return err
}

func (r *Renderer) encode(v any) error {
	switch r.format {
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func urgencyColor(priority int) lipgloss.TerminalColor {
	switch model.Urgency(priority) {
	case "Very High":
		return colorVeryHigh
	case "Medium":
		return colorMedium
	default:
		return colorLow
	}
}
