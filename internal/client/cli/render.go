package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/seedpipe/internal/client/client"
	"github.com/dmitrijs2005/seedpipe/internal/common"
)

const totalStages = 5

var (
	stageColor = color.New(color.FgCyan, color.Bold)
	warnColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen, color.Bold)
	errColor   = color.New(color.FgRed, color.Bold)
	linkColor  = color.New(color.FgBlue, color.Underline)
	dimColor   = color.New(color.Faint)
)

// renderer prints events as they arrive. Progress updates rewrite one line.
type renderer struct {
	w            io.Writer
	progressLine bool
}

func (r *renderer) finishLine() {
	if r.progressLine {
		fmt.Fprintln(r.w)
		r.progressLine = false
	}
}

// render prints ev. done reports a terminal event; ok whether it was a
// success.
func (r *renderer) render(ev client.Event) (done, ok bool) {
	if ev.Type == "progress" {
		p, err := ev.Progress()
		if err != nil {
			return false, false
		}
		fmt.Fprint(r.w, "\r")
		dimColor.Fprintf(r.w, "  %-5s %5.1f%%", p.Stage, p.Percent)
		r.progressLine = true
		return false, false
	}

	r.finishLine()

	switch ev.Type {
	case "stage":
		s, err := ev.Stage()
		if err != nil {
			return false, false
		}
		stageColor.Fprintf(r.w, "[%d/%d] %s\n", s.Stage, totalStages, s.Label)

	case "log":
		line := ev.Text()
		if strings.HasPrefix(line, common.WarningPrefix) {
			warnColor.Fprintln(r.w, "  "+line)
		} else {
			fmt.Fprintln(r.w, "  "+line)
		}

	case "share-link":
		fmt.Fprint(r.w, "  Link: ")
		linkColor.Fprintln(r.w, ev.Text())

	case "success":
		sp, _ := ev.Success()
		okColor.Fprintln(r.w, sp.Message)
		return true, true

	case "error":
		errColor.Fprintln(r.w, ev.Text())
		return true, false

	case "auth-result":
		// late duplicate of the handshake, nothing to show

	default:
		dimColor.Fprintf(r.w, "  (%s) %s\n", ev.Type, ev.Text())
	}
	return false, false
}
