package proto

import "github.com/Kay0310/toolboxtalk-v27/internal/core"

// FromRoomView converts a core view to its wire form.
func FromRoomView(v core.RoomView) *RoomView {
	out := &RoomView{
		RoomCode: v.RoomCode,
		Admin:    v.Admin,
		Username: v.Username,
		Role:     string(v.Role),
		Info: InfoView{
			Set:   v.InfoSet,
			Date:  v.Info.Date,
			Place: v.Info.Place,
			Time:  v.Info.Time,
			Task:  v.Info.Task,
		},
		Attendees:  nonNil(v.Attendees),
		Discussion: fromDiscussion(v.Discussion),
		Notes:      v.Notes,
		Tasks:      fromTasks(v.Tasks),
		Confirmed:  v.Confirmed,
		Revision:   v.Revision,
	}
	if v.Summary != nil {
		out.Summary = FromSummary(*v.Summary)
	}
	return out
}

// FromSummary converts a confirmation summary.
func FromSummary(s core.Summary) *SummaryView {
	out := &SummaryView{
		Confirmed: s.Confirmed,
		Total:     s.Total,
		Members:   make([]MemberConfirmationView, 0, len(s.Members)),
	}
	for _, m := range s.Members {
		out.Members = append(out.Members, MemberConfirmationView{Name: m.Name, Confirmed: m.Confirmed})
	}
	return out
}

// FromPrintable converts printable minutes.
func FromPrintable(p core.Printable) *PrintableView {
	return &PrintableView{
		Title:      p.Title,
		RoomCode:   p.RoomCode,
		Leader:     p.Leader,
		Date:       p.Date,
		Time:       p.Time,
		Place:      p.Place,
		Task:       p.Task,
		Attendees:  nonNil(p.Attendees),
		Discussion: fromDiscussion(p.Discussion),
		Notes:      p.Notes,
		Tasks:      fromTasks(p.Tasks),
		Signatures: nonNil(p.Signatures),
		Footer:     p.Footer,
	}
}

// FromActionResult converts an action result.
func FromActionResult(r core.ActionResult) ActionResultView {
	return ActionResultView{
		Action:           string(r.Kind),
		Changed:          r.Changed,
		AlreadyConfirmed: r.AlreadyConfirmed,
	}
}

// ErrorFrom maps any error to a wire error.
func ErrorFrom(err error) *Error {
	ce := core.ToCoreError(err)
	if ce == nil {
		return nil
	}
	return &Error{Code: ce.Code, Msg: ce.Message}
}

func fromDiscussion(items []core.DiscussionItem) []DiscussionView {
	out := make([]DiscussionView, 0, len(items))
	for _, d := range items {
		out = append(out, DiscussionView{Risk: d.Risk, Measure: d.Measure})
	}
	return out
}

func fromTasks(tasks []core.Task) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskView{Person: t.Person, Duty: t.Duty, Deadline: t.Deadline.Format(core.DateLayout)})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
