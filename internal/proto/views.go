package proto

// LoginRequest opens a room session. Role is "admin" or "member".
type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	RoomCode string `json:"room_code" binding:"required"`
	Members  string `json:"members,omitempty"`
}

// LoginResponse carries the session token and the caller's first view.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	Replaced  bool      `json:"replaced,omitempty"`
	Room      *RoomView `json:"room"`
}

// InfoView is the meeting header. Set is false until the admin saves it.
type InfoView struct {
	Set   bool   `json:"set"`
	Date  string `json:"date"`
	Place string `json:"place"`
	Time  string `json:"time"`
	Task  string `json:"task"`
}

type DiscussionView struct {
	Risk    string `json:"risk"`
	Measure string `json:"measure"`
}

type TaskView struct {
	Person   string `json:"person"`
	Duty     string `json:"duty"`
	Deadline string `json:"deadline"`
}

type MemberConfirmationView struct {
	Name      string `json:"name"`
	Confirmed bool   `json:"confirmed"`
}

// SummaryView is the admin's signature overview.
type SummaryView struct {
	Confirmed int                      `json:"confirmed"`
	Total     int                      `json:"total"`
	Members   []MemberConfirmationView `json:"members"`
}

// RoomView is one user's view of the room.
type RoomView struct {
	RoomCode   string           `json:"room_code"`
	Admin      string           `json:"admin"`
	Username   string           `json:"username"`
	Role       string           `json:"role"`
	Info       InfoView         `json:"info"`
	Attendees  []string         `json:"attendees"`
	Discussion []DiscussionView `json:"discussion"`
	Notes      string           `json:"notes"`
	Tasks      []TaskView       `json:"tasks"`
	Confirmed  bool             `json:"confirmed"`
	Summary    *SummaryView     `json:"summary,omitempty"`
	Revision   int64            `json:"revision"`
}

// PrintableView is the printable minutes in print order.
type PrintableView struct {
	Title      string           `json:"title"`
	RoomCode   string           `json:"room_code"`
	Leader     string           `json:"leader"`
	Date       string           `json:"date"`
	Time       string           `json:"time"`
	Place      string           `json:"place"`
	Task       string           `json:"task"`
	Attendees  []string         `json:"attendees"`
	Discussion []DiscussionView `json:"discussion"`
	Notes      string           `json:"notes"`
	Tasks      []TaskView       `json:"tasks"`
	Signatures []string         `json:"signatures"`
	Footer     string           `json:"footer"`
}

// ActionResultView reports what an action did.
type ActionResultView struct {
	Action           string `json:"action"`
	Changed          bool   `json:"changed"`
	AlreadyConfirmed bool   `json:"already_confirmed,omitempty"`
}

// ActionResponse is returned for every applied action.
type ActionResponse struct {
	Result    ActionResultView `json:"result"`
	Room      *RoomView        `json:"room"`
	Printable *PrintableView   `json:"printable"`
}

// ArchiveView is an archived copy of a room's minutes. Listings omit Minutes.
type ArchiveView struct {
	RoomCode  string         `json:"room_code"`
	Admin     string         `json:"admin"`
	Revision  int64          `json:"revision"`
	UpdatedAt string         `json:"updated_at"`
	Minutes   *PrintableView `json:"minutes,omitempty"`
}

// ArchiveListView lists archived minutes, most recently updated first.
type ArchiveListView struct {
	Archives []ArchiveView `json:"archives"`
}
