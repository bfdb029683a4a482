// Package output renders command results for terminals, markdown consumers
// and machines.
//
// In auto mode a terminal gets styled text and anything else gets markdown,
// so piping output into a file or an agent yields plain, parseable text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/charmbracelet/lipgloss"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	prettytext "github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/nutripipe/pkg/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// OutputMode selects how results are rendered.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Modes lists the accepted mode names.
var Modes = []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}

// Mode converts a configuration string into an OutputMode. Unknown values
// fall back to ModeAuto.
func Mode(s string) OutputMode {
	switch OutputMode(s) {
	case ModeText, ModeMarkdown, ModeJSON:
		return OutputMode(s)
	default:
		return ModeAuto
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	isTTY   bool
	mode    OutputMode
	styles  *Styles
	printer *message.Printer
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	lr := lipgloss.NewRenderer(out)
	if !isTTY {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:     out,
		errOut:  errOut,
		isTTY:   isTTY,
		mode:    mode,
		styles:  newStyles(lr),
		printer: message.NewPrinter(language.English),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// EffectiveMode resolves ModeAuto against the terminal state.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the text styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the stdout writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Println writes a line to stdout.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to stdout.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Count formats n with thousands separators.
func (r *Renderer) Count(n int) string {
	return r.printer.Sprintf("%d", n)
}

// Header writes a section header.
func (r *Renderer) Header(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("## " + s)
		r.Println("")
		return
	}
	r.Println(r.styles.Header1.Render(s))
}

// Success writes a success line to stdout.
func (r *Renderer) Success(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("**" + s + "**")
		return
	}
	r.Println(r.styles.Success.Render("✓ " + s))
}

// Warning writes a warning line to stderr.
func (r *Renderer) Warning(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("Warning: "+s))
}

// Error writes an error line to stderr.
func (r *Renderer) Error(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("Error: "+s))
}

// KeyValue writes an aligned key and value line.
func (r *Renderer) KeyValue(key, value string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Printf("- **%s**: %s\n", key, value)
		return
	}
	r.Printf("  %s %s\n", r.styles.Key.Render(key+":"), value)
}

// JSON writes v as indented JSON to stdout.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// tableJSON is the JSON form of a rendered table.
type tableJSON struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total_rows"`
}

// Table renders t in the effective mode. total is the row count of the
// table t was cut from, reported when larger than t.
func (r *Renderer) Table(t *table.Table, total int) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		rows := make([][]any, t.NumRows())
		for i := range rows {
			rows[i] = jsonRow(t.Row(i))
		}
		return r.JSON(tableJSON{Columns: t.Names(), Rows: rows, Total: total})
	case ModeMarkdown:
		r.prettyWriter(t).RenderMarkdown()
	default:
		w := r.prettyWriter(t)
		w.SetStyle(prettytable.StyleLight)
		// headers are column labels and keep their case
		w.Style().Format.Header = prettytext.FormatDefault
		w.Render()
	}

	if total > t.NumRows() {
		r.Println(r.styles.Muted.Render(fmt.Sprintf("(%s of %s rows)", r.Count(t.NumRows()), r.Count(total))))
	} else {
		r.Println(r.styles.Muted.Render(fmt.Sprintf("(%s rows)", r.Count(t.NumRows()))))
	}
	return nil
}

func (r *Renderer) prettyWriter(t *table.Table) prettytable.Writer {
	w := prettytable.NewWriter()
	w.SetOutputMirror(r.out)

	header := make(prettytable.Row, t.NumCols())
	for i, name := range t.Names() {
		header[i] = name
	}
	w.AppendHeader(header)

	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		cells := make(prettytable.Row, len(row))
		for j, v := range row {
			cells[j] = table.FormatValue(v)
		}
		w.AppendRow(cells)
	}
	return w
}

// jsonRow replaces values JSON cannot encode with null.
func jsonRow(row []any) []any {
	for i, v := range row {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			row[i] = nil
		}
	}
	return row
}
