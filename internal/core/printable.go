package core

import (
	"fmt"
	"io"
	"strings"
)

// DateLayout is how dates appear in minutes and on the wire.
const DateLayout = "2006-01-02"

const (
	printableTitle = "Toolbox Talk Minutes"
	unsetField     = "none"
)

// Printable is the read-only document handed to the presentation layer. Field
// order follows the printed minutes.
type Printable struct {
	Title      string
	RoomCode   string
	Leader     string
	Date       string
	Time       string
	Place      string
	Task       string
	Attendees  []string
	Discussion []DiscussionItem
	Notes      string
	Tasks      []Task
	Signatures []string
	Footer     string
}

func renderPrintable(state RoomState, footer string) Printable {
	p := Printable{
		Title:      fmt.Sprintf("%s - %s", printableTitle, state.Code),
		RoomCode:   state.Code,
		Leader:     state.Admin,
		Date:       unsetField,
		Time:       unsetField,
		Place:      unsetField,
		Task:       unsetField,
		Attendees:  state.Attendees,
		Discussion: state.Discussion,
		Notes:      state.Notes,
		Tasks:      state.Tasks,
		Signatures: state.Confirmations,
		Footer:     footer,
	}
	if state.InfoSet {
		p.Date = state.Info.Date
		p.Time = state.Info.Time
		p.Place = state.Info.Place
		p.Task = state.Info.Task
	}
	return p
}

// WriteText renders the minutes as plain text.
func (p Printable) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", p.Title)
	fmt.Fprintf(&b, "Leader: %s\n", p.Leader)
	fmt.Fprintf(&b, "Date: %s  Time: %s\n", p.Date, p.Time)
	fmt.Fprintf(&b, "Place: %s  Task: %s\n", p.Place, p.Task)

	b.WriteString("\nAttendees\n")
	for _, a := range p.Attendees {
		fmt.Fprintf(&b, "- %s\n", a)
	}

	b.WriteString("\nDiscussion\n")
	for _, d := range p.Discussion {
		fmt.Fprintf(&b, "- %s -> %s\n", d.Risk, d.Measure)
	}

	b.WriteString("\nAdditional notes\n")
	if p.Notes != "" {
		fmt.Fprintf(&b, "%s\n", p.Notes)
	}

	b.WriteString("\nDecisions and actions\n")
	for _, t := range p.Tasks {
		fmt.Fprintf(&b, "- %s: %s (due %s)\n", t.Person, t.Duty, t.Deadline.Format(DateLayout))
	}

	b.WriteString("\nSignatures\n")
	for _, n := range p.Signatures {
		fmt.Fprintf(&b, "- %s (confirmed)\n", n)
	}

	if p.Footer != "" {
		fmt.Fprintf(&b, "\n---\n%s\n", p.Footer)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
