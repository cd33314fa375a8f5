// Package display renders session progress to the terminal.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"focusd/internal/events"
	"focusd/internal/session"
)

// Console writes a live countdown line and end-of-session summaries to a
// terminal. Attach it to the event bus with Subscribe(c.OnTick, c.OnEnded).
type Console struct {
	out io.Writer

	// current reports the active session, so ticks can be labelled with
	// its kind without the display holding scheduler state of its own.
	current func() (session.Session, bool)

	focusColor *color.Color
	breakColor *color.Color
	doneColor  *color.Color
	stopColor  *color.Color
}

// NewConsole creates a console display writing to out.
func NewConsole(out io.Writer, current func() (session.Session, bool)) *Console {
	return &Console{
		out:        out,
		current:    current,
		focusColor: color.New(color.FgRed, color.Bold),
		breakColor: color.New(color.FgGreen, color.Bold),
		doneColor:  color.New(color.FgGreen),
		stopColor:  color.New(color.FgYellow),
	}
}

// OnTick rewrites the countdown line in place.
func (c *Console) OnTick(evt events.Tick) {
	sess, ok := c.current()
	if !ok || sess.ID != evt.SessionID {
		return
	}

	label := kindLabel(sess.Kind)
	if sess.Label != "" {
		label = fmt.Sprintf("%s (%s)", label, sess.Label)
	}

	painter := c.breakColor
	if sess.Kind == session.KindFocus {
		painter = c.focusColor
	}

	fmt.Fprintf(c.out, "\r\033[K%s  %s", painter.Sprint(label), formatRemaining(evt.Remaining))
}

// OnEnded replaces the countdown line with a summary.
func (c *Console) OnEnded(evt events.Ended) {
	rec := evt.Record
	elapsed := time.Duration(rec.ActualSeconds) * time.Second

	var line string
	if rec.Completed {
		line = c.doneColor.Sprintf("%s finished after %s", kindLabel(rec.Kind), formatRemaining(elapsed))
	} else {
		line = c.stopColor.Sprintf("%s stopped after %s", kindLabel(rec.Kind), formatRemaining(elapsed))
	}

	fmt.Fprintf(c.out, "\r\033[K%s\n", line)
	if evt.Err != nil {
		fmt.Fprintf(c.out, "warning: session record not saved: %v\n", evt.Err)
	}
	fmt.Fprintf(c.out, "next up: %s\n", kindLabel(evt.Next))
}

func kindLabel(kind session.Kind) string {
	switch kind {
	case session.KindFocus:
		return "Focus"
	case session.KindShortBreak:
		return "Short break"
	case session.KindLongBreak:
		return "Long break"
	default:
		return string(kind)
	}
}

// formatRemaining renders a duration as mm:ss, or h:mm:ss past the hour.
func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
