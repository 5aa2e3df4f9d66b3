// Package render formats tracker state for the terminal. Styling is pure
// presentation; nothing here feeds back into the model.
package render

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/giladbarnea/ti-sub000/internal/timeutil"
	"github.com/giladbarnea/ti-sub000/internal/tracker"
)

// namePalette holds the ANSI colors an activity name may deterministically
// hash to. Red is excluded; it reads as an error.
var namePalette = []string{"2", "3", "4", "5", "6", "10", "11", "12", "13", "14"}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Renderer renders status and log output, optionally without color.
type Renderer struct {
	noColor bool
}

// New builds a renderer. noColor disables all styling.
func New(noColor bool) *Renderer { return &Renderer{noColor: noColor} }

// Name renders an activity name in its deterministic per-name color.
func (r *Renderer) Name(name string) string {
	if r.noColor {
		return name
	}
	h := fnv.New32a()
	h.Write([]byte(tracker.NormalizeName(name)))
	color := namePalette[h.Sum32()%uint32(len(namePalette))]
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(name)
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.noColor {
		return text
	}
	return s.Render(text)
}

// Status renders the one-line answer to "what am I doing now".
func (r *Renderer) Status(act *tracker.Activity) string {
	last, ok := act.SafeLastEntry()
	if !ok {
		return fmt.Sprintf("%s has no entries", r.Name(act.Name()))
	}
	start, err := last.Start()
	if err != nil {
		return fmt.Sprintf("%s (start unreadable: %v)", r.Name(act.Name()), err)
	}
	return fmt.Sprintf("working on %s (started %s)",
		r.Name(act.Name()), humanize.Time(start.Std()))
}

// Day renders a full day's activities with per-entry spans and totals. Open
// entries display a running now-minus-start duration; stored totals never include
// them.
func (r *Renderer) Day(key string, day *tracker.Day) (string, error) {
	var b strings.Builder
	b.WriteString(r.style(headerStyle, key))
	b.WriteString("\n")
	for _, name := range day.Names() {
		act, err := day.Activity(name)
		if err != nil {
			return "", err
		}
		entries, err := act.Entries()
		if err != nil {
			return "", fmt.Errorf("activity %q: %w", name, err)
		}
		if len(entries) == 0 {
			continue
		}
		total := act.Duration()
		if act.Ongoing() {
			if last, ok := act.SafeLastEntry(); ok {
				if start, err := last.Start(); err == nil {
					total += time.Since(start.Std())
				}
			}
		}
		fmt.Fprintf(&b, "  %s  %s\n", r.Name(name), timeutil.HumanDuration(total))
		for _, e := range entries {
			line, err := r.entryLine(e)
			if err != nil {
				return "", fmt.Errorf("activity %q: %w", name, err)
			}
			b.WriteString(line)
		}
	}
	return b.String(), nil
}

func (r *Renderer) entryLine(e *tracker.Entry) (string, error) {
	start, err := e.Start()
	if err != nil {
		return "", err
	}
	span := start.String() + " - "
	if end, ok, err := e.End(); err != nil {
		return "", err
	} else if ok {
		span += end.String()
	} else {
		span += "now"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "    %s", r.style(dimStyle, span))
	tags, err := e.Tags()
	if err != nil {
		return "", err
	}
	for _, tag := range tags {
		fmt.Fprintf(&b, " %s", r.style(tagStyle, "["+tag+"]"))
	}
	if jira, ok := e.Jira(); ok {
		fmt.Fprintf(&b, " %s", r.style(tagStyle, jira))
	}
	b.WriteString("\n")
	notes, err := e.Notes()
	if err != nil {
		return "", err
	}
	for _, n := range notes {
		fmt.Fprintf(&b, "      %s\n", r.style(dimStyle, "· "+n.Content))
	}
	return b.String(), nil
}
