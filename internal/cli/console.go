package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/effective-security/eztoolbox/callbacks"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/pool"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boldStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	replyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Prompt is printed before each input line
const Prompt = "> "

// PrintReport writes one line per server with the connect outcome
func PrintReport(w io.Writer, report []pool.Status) {
	for _, st := range report {
		if st.Err != nil {
			fmt.Fprintf(w, "%s Failed to connect to %s: %s\n",
				failStyle.Render("✗"), boldStyle.Render(st.Name), st.Err.Error())
			continue
		}
		fmt.Fprintf(w, "%s Connected to %s: %s\n",
			okStyle.Render("✓"), boldStyle.Render(st.Name), st.Description)
	}
}

// RenderTools returns the tool table
func RenderTools(list []pool.Tool) string {
	if len(list) == 0 {
		return dimStyle.Render("no tools available")
	}

	t := table.New().
		Headers("TOOL", "PARAMETERS", "DESCRIPTION").
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return lipgloss.NewStyle()
		})
	for _, tool := range list {
		params := make([]string, 0, len(tool.Descriptor.Parameters))
		for _, p := range tool.Descriptor.Parameters {
			name := p.Name
			if !p.Required {
				name += "?"
			}
			params = append(params, name+":"+string(p.Type))
		}
		t.Row(tool.QualifiedName(), strings.Join(params, ", "), tool.Descriptor.Description)
	}
	return t.Render()
}

// PrintOutcome writes the command outcome
func PrintOutcome(w io.Writer, out *dispatch.Outcome) {
	switch out.Kind {
	case dispatch.CommandInput:
		if out.Reply != nil && out.Reply.Content != "" {
			fmt.Fprintln(w, replyStyle.Render(out.Reply.Content))
		}
	case dispatch.CommandClear:
		fmt.Fprintln(w, dimStyle.Render("history cleared"))
	case dispatch.CommandTools:
		fmt.Fprintln(w, RenderTools(out.Tools))
	case dispatch.CommandCall:
		if out.Result != nil {
			PrintResult(w, *out.Result)
		}
	case dispatch.CommandVerbose:
		state := "off"
		if out.Verbose {
			state = "on"
		}
		fmt.Fprintln(w, dimStyle.Render("verbose "+state))
	case dispatch.CommandRetry:
		fmt.Fprintln(w, okStyle.Render("reconnected"))
	case dispatch.CommandExec, dispatch.CommandHelp:
		if out.Output != "" {
			fmt.Fprintln(w, strings.TrimRight(out.Output, "\n"))
		}
	}
}

// PrintResult writes the tool call result
func PrintResult(w io.Writer, res dispatch.ToolCallResult) {
	if res.Failed() {
		fmt.Fprintf(w, "%s %s\n", failStyle.Render("✗"), res.Failure)
		return
	}
	fmt.Fprintf(w, "%s %s\n", okStyle.Render("✓"), res.Value)
}

// PrintError writes the failure of the command
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", failStyle.Render("error:"), err.Error())
}

// PrintStats writes the counters of the turn
func PrintStats(w io.Writer, stats *callbacks.TurnStats) {
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("model calls: %d, tool calls: %d (%d failed), took %s",
		stats.ModelCalls, stats.ToolCalls, stats.ToolCallsFailed, stats.Duration.Round(time.Millisecond))))
}
