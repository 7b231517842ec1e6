package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zero-day-ai/sabik/agent"
	"github.com/zero-day-ai/sabik/health"
	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
)

// DefaultWidth is used for rules and to wrap long panels.
const DefaultWidth = 100

// Console renders Sabik's terminal output. It is safe for concurrent use;
// feed events and conversation output may interleave but never tear.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	width  int
}

// Option configures a Console.
type Option func(*Console)

// WithTheme replaces DefaultTheme.
func WithTheme(t Theme) Option {
	return func(c *Console) {
		c.styles = NewStyles(t)
	}
}

// WithWidth sets the rendering width.
func WithWidth(w int) Option {
	return func(c *Console) {
		if w > 20 {
			c.width = w
		}
	}
}

// New creates a console writing to out.
func New(out io.Writer, opts ...Option) *Console {
	c := &Console{
		out:    out,
		styles: NewStyles(DefaultTheme),
		width:  DefaultWidth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Styles returns the styles in use.
func (c *Console) Styles() Styles {
	return c.styles
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *Console) box(border lipgloss.Color, title, body string) string {
	t := c.styles.Title.Foreground(border).Render(title)
	content := lipgloss.NewStyle().MaxWidth(c.width - 4).Render(body)
	return panel(border).Render(t + "\n" + content)
}

// WelcomeInfo is shown in the welcome panel.
type WelcomeInfo struct {
	Referrer  string
	TextURL   string
	ImageURL  string
	OutputDir string
	RedisURL  string
}

// Welcome prints the startup panel followed by the help panel.
func (c *Console) Welcome(info WelcomeInfo) {
	v := c.styles.Value
	lines := []string{
		c.styles.Label.Render("Sabik AI Agent"),
		"Referrer:   " + v.Render(info.Referrer),
		"LLM API:    " + v.Render(info.TextURL),
		"Image API:  " + v.Render(info.ImageURL),
		"Output Dir: " + v.Render(info.OutputDir),
	}
	if info.RedisURL != "" {
		lines = append(lines, "Redis:      "+v.Render(info.RedisURL))
	}
	lines = append(lines, "",
		"The agent uses a language model with tool calling.",
		"Responses are not streamed.")

	c.println(c.box(c.styles.Theme.Primary, "Welcome to Sabik AI!", strings.Join(lines, "\n")))
	c.Help()
}

var helpText = `Type a request, for example:
  - Generate an image of a futuristic city at sunset.
  - What is depicted in the image at ./my_photo.jpg? Is there a cat?
  - Transcribe the audio content from the file meeting_recording.wav.
  - Can you say 'Hello, world!' using the 'echo' voice?
  - What is the result of (350 / 7) * 3 + 15?
  - Fetch the main content from the webpage https://example.com

Commands:
  /feed start image|text   follow a live feed in the background
  /feed stop               stop all feeds
  /reset                   forget the conversation
  /usage                   show token usage
  /help                    show this help
  quit, exit               leave`

// Help prints the usage panel.
func (c *Console) Help() {
	c.println(c.box(c.styles.Theme.Info, "Help & Instructions", helpText))
}

// Prompt returns the styled input prompt.
func (c *Console) Prompt() string {
	return c.styles.Prompt.Render("You> ")
}

// Rule prints a dim separator line.
func (c *Console) Rule() {
	c.println(c.styles.Rule.Render(strings.Repeat("─", c.width)))
}

// Notice prints an informational line.
func (c *Console) Notice(format string, args ...any) {
	c.println(c.styles.Notice.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func (c *Console) Warn(format string, args ...any) {
	c.println(c.styles.Warn.Render(fmt.Sprintf(format, args...)))
}

// Error prints err, including the code and hints of a *toolerr.Error.
func (c *Console) Error(err error) {
	if err == nil {
		return
	}
	body := err.Error()
	var te *toolerr.Error
	if errors.As(err, &te) {
		body = fmt.Sprintf("[%s] %s", te.Code, err.Error())
		for _, h := range te.Hints {
			body += "\n  hint " + h.String()
		}
	}
	c.println(c.box(c.styles.Theme.Error, "Error", body))
}

// Turn prints the outcome of a conversation turn.
func (c *Console) Turn(res agent.TurnResult) {
	switch res.Status {
	case agent.StatusAborted:
		if res.Err != nil {
			c.Error(res.Err)
		}
		c.println(c.styles.Marker.Render(res.Text))
	case agent.StatusLoopExhausted:
		c.Warn("Max tool call iterations (%d) reached.", res.Iterations)
		if res.Text != "" {
			c.println(c.box(c.styles.Theme.Assistant, "Assistant", res.Text))
		} else {
			c.println(c.styles.Marker.Render(res.Display()))
		}
	case agent.StatusNoText:
		c.println(c.styles.Marker.Render(res.Display()))
	default:
		c.println(c.box(c.styles.Theme.Assistant, "Assistant", res.Text))
	}
}

// ToolCalls prints the calls the model requested.
func (c *Console) ToolCalls(iteration int, calls []llm.ToolCall) {
	lines := make([]string, len(calls))
	for i, call := range calls {
		lines[i] = fmt.Sprintf("ID: %s, Func: %s, Args: %s", call.ID, call.Name, call.Arguments)
	}
	title := fmt.Sprintf("Tool Call Details (iteration %d)", iteration)
	c.println(c.box(c.styles.Theme.Tool, title, strings.Join(lines, "\n")))
}

// ToolResults prints a table of the batch outcome.
func (c *Console) ToolResults(iteration int, calls []llm.ToolCall, results []tool.Result) {
	rows := make([][]string, len(calls))
	for i, call := range calls {
		status := "?"
		if i < len(results) {
			status = resultLabel(results[i])
		}
		rows[i] = []string{call.ID, call.Name, truncate(call.Arguments, 48), status}
	}

	t := c.table([]string{"Tool Call ID", "Function", "Arguments", "Status"}, rows, func(row, col int) lipgloss.Style {
		if col != 3 || row < 0 || row >= len(results) {
			return lipgloss.NewStyle()
		}
		if results[row].IsError() {
			return c.styles.Error
		}
		return c.styles.Notice
	})
	c.println(t)
}

func resultLabel(r tool.Result) string {
	if !r.IsError() {
		if r.NonStandard {
			return "Success (non-standard)"
		}
		return "Success"
	}
	if r.Err != nil {
		switch r.Err.Code {
		case toolerr.CodeUnknownTool:
			return "Unknown Function"
		case toolerr.CodeArgumentDecode:
			return "Arg JSON Error"
		case toolerr.CodeArgumentShape:
			return "Arg Error"
		case toolerr.CodeInternalFault:
			return "Execution Error"
		}
		return "Error: " + r.Err.Code
	}
	return "Error"
}

// Hooks returns orchestrator hooks that render tool activity.
func (c *Console) Hooks() agent.Hooks {
	return agent.Hooks{
		OnToolCalls:   c.ToolCalls,
		OnToolResults: c.ToolResults,
	}
}

// Tools prints the registered tool specs.
func (c *Console) Tools(specs []tool.Spec) {
	rows := make([][]string, len(specs))
	for i, s := range specs {
		rows[i] = []string{s.Name, strings.Join(s.Required(), ", "), truncate(s.Description, 60)}
	}
	c.println(c.table([]string{"Tool", "Required", "Description"}, rows, nil))
}

// Usage prints token usage per model and in total.
func (c *Console) Usage(s llm.Snapshot) {
	names := s.ModelNames()
	if len(names) == 0 {
		c.Notice("No tokens used yet.")
		return
	}

	rows := make([][]string, 0, len(names)+1)
	for _, name := range names {
		u := s.Models[name]
		rows = append(rows, usageRow(name, u))
	}
	rows = append(rows, usageRow("total", s.Total))
	c.println(c.table([]string{"Model", "Input", "Output", "Total"}, rows, nil))
}

func usageRow(name string, u llm.TokenUsage) []string {
	return []string{name, strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), strconv.Itoa(u.TotalTokens)}
}

// Health prints doctor results.
func (c *Console) Health(results []health.Result) {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{r.Name, r.Status.Status, r.Status.Message}
	}
	c.println(c.table([]string{"Check", "Status", "Detail"}, rows, func(row, col int) lipgloss.Style {
		if col != 1 || row < 0 || row >= len(results) {
			return lipgloss.NewStyle()
		}
		switch results[row].Status.Severity() {
		case 0:
			return c.styles.Notice
		case 1:
			return c.styles.Warn
		default:
			return c.styles.Error
		}
	}))

	overall := health.Overall(results)
	switch {
	case overall.IsHealthy():
		c.Notice("%s", overall.Message)
	case overall.IsDegraded():
		c.Warn("%s", overall.Message)
	default:
		c.println(c.styles.Error.Render(overall.Message))
	}
}

func (c *Console) table(headers []string, rows [][]string, style func(row, col int) lipgloss.Style) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(c.styles.Rule).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(true)
			}
			if style != nil {
				return style(row, col).Padding(0, 1)
			}
			return base
		})
	return t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
