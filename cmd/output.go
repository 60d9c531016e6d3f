package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	skerr "github.com/samhoang/skillkit/internal/errors"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	headerColor  = color.New(color.Bold)
	detailColor  = color.New(color.FgCyan)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// printer writes user-facing output for one command invocation
type printer struct {
	out io.Writer
	in  *bufio.Reader
}

func newPrinter(out io.Writer, in io.Reader) *printer {
	if in == nil {
		in = os.Stdin
	}
	return &printer{out: out, in: bufio.NewReader(in)}
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) success(format string, args ...any) {
	successColor.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) warn(format string, args ...any) {
	warnColor.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) header(format string, args ...any) {
	headerColor.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) detail(label, value string) {
	fmt.Fprintf(p.out, "  %s %s\n", label, detailColor.Sprint(value))
}

// confirm asks a y/n question. End of input answers no.
func (p *printer) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// errorLabel renders a command error with a short category prefix
func errorLabel(err error) string {
	var prefix string
	switch {
	case errors.Is(err, skerr.ErrUnknownSource):
		prefix = "invalid source"
	case errors.Is(err, skerr.ErrUnknownAgent):
		prefix = "invalid agent"
	case errors.Is(err, skerr.ErrLockCorrupt):
		prefix = "lock file"
	case errors.Is(err, skerr.ErrMalformedDocument):
		prefix = "skill document"
	}
	if prefix == "" {
		return errorColor.Sprintf("Error: %v", err)
	}
	return errorColor.Sprintf("Error (%s): %v", prefix, err)
}
