package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kestrel/internal/diag"
	"kestrel/internal/source"
)

type palette struct {
	sev  map[diag.Severity]*color.Color
	path *color.Color
	code *color.Color
	mark *color.Color
	note *color.Color
	gut  *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   mk(color.FgRed, color.Bold),
			diag.SevWarning: mk(color.FgYellow, color.Bold),
			diag.SevInfo:    mk(color.FgBlue, color.Bold),
			diag.SevHelp:    mk(color.FgCyan, color.Bold),
		},
		path: mk(color.Bold),
		code: mk(color.FgHiBlack),
		mark: mk(color.FgRed, color.Bold),
		note: mk(color.FgCyan),
		gut:  mk(color.FgBlue),
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	p := newPalette(opts.Color)
	items := bag.Items()
	limit := len(items)
	if opts.Max > 0 && opts.Max < limit {
		limit = opts.Max
	}

	var sb strings.Builder
	for i := range limit {
		d := items[i]
		sevColor, ok := p.sev[d.Severity]
		if !ok {
			sevColor = p.sev[diag.SevError]
		}
		loc := location(fs, d.Primary, opts)
		fmt.Fprintf(&sb, "%s: %s %s: %s\n",
			p.path.Sprint(loc),
			sevColor.Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message,
		)
		writeSnippet(&sb, fs, d.Primary, p, opts.Width)

		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&sb, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts), n.Msg)
				writeSnippet(&sb, fs, n.Span, p, opts.Width)
			}
		}
	}
	if hidden := len(items) - limit; hidden > 0 {
		fmt.Fprintf(&sb, "... %d more diagnostic(s) not shown\n", hidden)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func location(fs *source.FileSet, sp source.Span, opts PrettyOpts) string {
	if fs == nil {
		return "<unknown>"
	}
	f := fs.Get(sp.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f.Path, opts.PathMode, opts.BaseDir), start.Line, start.Col)
}

// writeSnippet печатает строку исходника и подчёркивание. Колонки
// считаются в ячейках терминала, а не в байтах.
func writeSnippet(sb *strings.Builder, fs *source.FileSet, sp source.Span, p palette, width uint8) {
	if fs == nil {
		return
	}
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	line := strings.ReplaceAll(f.GetLine(start.Line), "\t", "    ")
	raw := f.GetLine(start.Line)

	prefixBytes := clampCol(raw, start.Col)
	endCol := end.Col
	if end.Line != start.Line {
		endCol = uint32(len(raw)) + 1 //nolint:gosec // line length fits in file size
	}
	endBytes := clampCol(raw, endCol)
	if endBytes < prefixBytes {
		endBytes = prefixBytes
	}
	pad := runewidth.StringWidth(strings.ReplaceAll(raw[:prefixBytes], "\t", "    "))
	span := runewidth.StringWidth(strings.ReplaceAll(raw[prefixBytes:endBytes], "\t", "    "))
	if span == 0 {
		span = 1
	}

	if width > 0 {
		line = runewidth.Truncate(line, int(width), "…")
	}
	gutter := fmt.Sprintf("%d", start.Line)
	blank := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(sb, " %s %s %s\n", p.gut.Sprint(gutter), p.gut.Sprint("|"), line)
	marker := "^" + strings.Repeat("~", span-1)
	fmt.Fprintf(sb, " %s %s %s%s\n", blank, p.gut.Sprint("|"), strings.Repeat(" ", pad), p.mark.Sprint(marker))
}

func clampCol(line string, col uint32) int {
	if col == 0 {
		return 0
	}
	n := int(col) - 1
	if n > len(line) {
		return len(line)
	}
	return n
}
