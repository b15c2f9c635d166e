package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

// printer writes check results, colored when the destination is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer, noColor bool) *printer {
	color := false
	if !noColor {
		if f, ok := w.(*os.File); ok {
			color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	return &printer{w: w, color: color}
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p *printer) success(path string) {
	fmt.Fprintf(p.w, "%s: %s\n", path, p.paint(ansiGreen, "ok"))
}

func (p *printer) failure(path string, err error) {
	fmt.Fprintf(p.w, "%s: %s: %v\n", path, p.paint(ansiRed, "error"), err)
}
