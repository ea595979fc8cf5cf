package http

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Kay0310/toolboxtalk-v27/internal/core"
	"github.com/Kay0310/toolboxtalk-v27/internal/proto"
)

func TestHealthAndMetrics(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected health status: %d", resp.StatusCode)
	}

	login(t, ts, "Kim", "admin", "A1", "Kim,Park")

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `toolboxtalk_logins_total{result="ok",role="admin"} 1`) {
		t.Fatalf("login metric missing:\n%s", body)
	}
}

func TestLogin(t *testing.T) {
	ts := startTestServer(t)

	admin := login(t, ts, "Kim", "admin", "A1", "Kim,Park,Lee")
	if admin.Token == "" || admin.Room == nil || admin.Room.Role != "admin" {
		t.Fatalf("unexpected admin login %+v", admin)
	}
	if admin.Room.Summary == nil || admin.Room.Summary.Total != 3 {
		t.Fatalf("admin view should carry the summary: %+v", admin.Room.Summary)
	}

	member := login(t, ts, "Park", "member", "A1", "")
	if member.Room.Summary != nil {
		t.Fatalf("member view leaked summary")
	}

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{name: "unregistered member", body: proto.LoginRequest{Name: "Choi", Role: "member", RoomCode: "A1"}, status: http.StatusUnauthorized, msg: core.AuthErrorMessage},
		{name: "unknown room", body: proto.LoginRequest{Name: "Park", Role: "member", RoomCode: "ZZ"}, status: http.StatusUnauthorized, msg: core.AuthErrorMessage},
		{name: "unknown role", body: proto.LoginRequest{Name: "Park", Role: "guest", RoomCode: "A1"}, status: http.StatusBadRequest},
		{name: "missing fields", body: map[string]string{"name": "Park"}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			status := doJSON(t, ts, http.MethodPost, "/api/login", "", tt.body, &resp)
			if status != tt.status {
				t.Fatalf("expected %d, got %d (%+v)", tt.status, status, resp)
			}
			if tt.msg != "" && resp.Error != tt.msg {
				t.Fatalf("error = %q, want %q", resp.Error, tt.msg)
			}
		})
	}
}

func TestRoomFlow(t *testing.T) {
	ts := startTestServer(t)

	kim := login(t, ts, "Kim", "admin", "A1", "Kim,Park,Lee").Token
	park := login(t, ts, "Park", "member", "A1", "").Token

	adminSteps := []proto.ActionRequest{
		action(t, "setInfo", proto.InfoPayload{Date: "2024-05-01", Place: "Site B", Time: "08:00", Task: "Scaffolding"}),
		action(t, "addDiscussion", proto.DiscussionPayload{Risk: "Fall hazard", Measure: "Use harness"}),
		action(t, "setNotes", proto.NotesPayload{Notes: "Check wind"}),
		action(t, "addTask", proto.TaskPayload{Person: "Lee", Duty: "Inspect anchors", Deadline: "2024-05-02"}),
	}
	for _, req := range adminSteps {
		var resp proto.ActionResponse
		if status := doJSON(t, ts, http.MethodPost, "/api/room/actions", kim, req, &resp); status != http.StatusOK {
			t.Fatalf("admin %s: expected 200, got %d", req.Action, status)
		}
		if !resp.Result.Changed {
			t.Fatalf("admin %s did not change the room", req.Action)
		}
	}

	var forbidden ErrorResponse
	if status := doJSON(t, ts, http.MethodPost, "/api/room/actions", park, action(t, "setNotes", proto.NotesPayload{Notes: "x"}), &forbidden); status != http.StatusForbidden {
		t.Fatalf("member setNotes: expected 403, got %d", status)
	}
	if forbidden.Code != core.ErrCodeForbidden {
		t.Fatalf("unexpected error code %q", forbidden.Code)
	}

	var confirmed proto.ActionResponse
	if status := doJSON(t, ts, http.MethodPost, "/api/room/actions", park, action(t, "confirm", nil), &confirmed); status != http.StatusOK {
		t.Fatalf("member confirm: expected 200, got %d", status)
	}
	if !confirmed.Room.Confirmed || len(confirmed.Printable.Signatures) != 1 {
		t.Fatalf("confirmation not reflected: %+v", confirmed)
	}

	var view proto.RoomView
	if status := doJSON(t, ts, http.MethodGet, "/api/room", park, nil, &view); status != http.StatusOK {
		t.Fatalf("member view: expected 200, got %d", status)
	}
	want := proto.InfoView{Set: true, Date: "2024-05-01", Place: "Site B", Time: "08:00", Task: "Scaffolding"}
	if view.Info != want {
		t.Fatalf("member info = %+v, want %+v", view.Info, want)
	}
	if len(view.Tasks) != 1 || view.Tasks[0].Deadline != "2024-05-02" {
		t.Fatalf("unexpected tasks %+v", view.Tasks)
	}

	var summary proto.SummaryView
	if status := doJSON(t, ts, http.MethodGet, "/api/room/summary", kim, nil, &summary); status != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", status)
	}
	if summary.Confirmed != 1 || summary.Total != 3 {
		t.Fatalf("summary %d/%d, want 1/3", summary.Confirmed, summary.Total)
	}
	if status := doJSON(t, ts, http.MethodGet, "/api/room/summary", park, nil, nil); status != http.StatusForbidden {
		t.Fatalf("member summary: expected 403, got %d", status)
	}

	var archive proto.ArchiveView
	if status := doJSON(t, ts, http.MethodGet, "/api/archive/A1", park, nil, &archive); status != http.StatusOK {
		t.Fatalf("archive: expected 200, got %d", status)
	}
	if archive.Minutes == nil || archive.Minutes.Notes != "Check wind" || len(archive.Minutes.Signatures) != 1 {
		t.Fatalf("archive out of date: %+v", archive.Minutes)
	}
	if status := doJSON(t, ts, http.MethodGet, "/api/archive/B2", park, nil, nil); status != http.StatusForbidden {
		t.Fatalf("foreign archive: expected 403, got %d", status)
	}
}

func TestPrintable(t *testing.T) {
	ts := startTestServer(t)
	kim := login(t, ts, "Kim", "admin", "A1", "Kim,Park").Token

	var p proto.PrintableView
	if status := doJSON(t, ts, http.MethodGet, "/api/room/print", kim, nil, &p); status != http.StatusOK {
		t.Fatalf("print: expected 200, got %d", status)
	}
	if p.Leader != "Kim" || p.Date != "none" || p.Footer == "" {
		t.Fatalf("unexpected printable %+v", p)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/room/print?format=text", nil)
	req.Header.Set("Authorization", "Bearer "+kim)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("print text: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	for _, want := range []string{"Toolbox Talk Minutes - A1", "Leader: Kim", "Date: none", "App. support by HealSE Co., Ltd."} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	ts := startTestServer(t)

	for _, token := range []string{"", "garbage"} {
		if status := doJSON(t, ts, http.MethodGet, "/api/room", token, nil, nil); status != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", token, status)
		}
	}
}

func TestStaleTokenAfterOverwrite(t *testing.T) {
	ts := startTestServer(t)

	oldPark := func() string {
		login(t, ts, "Kim", "admin", "A1", "Kim,Park")
		return login(t, ts, "Park", "member", "A1", "").Token
	}()

	replaced := login(t, ts, "Choi", "admin", "A1", "Choi,Park")
	if !replaced.Replaced {
		t.Fatalf("expected replaced=true")
	}

	var resp ErrorResponse
	if status := doJSON(t, ts, http.MethodGet, "/api/room", oldPark, nil, &resp); status != http.StatusUnauthorized {
		t.Fatalf("stale token: expected 401, got %d", status)
	}
	if resp.Error != core.AuthErrorMessage {
		t.Fatalf("unexpected message %q", resp.Error)
	}
}

func TestArchiveList(t *testing.T) {
	ts := startTestServer(t)

	kim := login(t, ts, "Kim", "admin", "A1", "Kim,Park").Token
	park := login(t, ts, "Park", "member", "A1", "").Token
	login(t, ts, "Choi", "admin", "B2", "Lee")

	var list proto.ArchiveListView
	if status := doJSON(t, ts, http.MethodGet, "/api/archive", kim, nil, &list); status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	if len(list.Archives) != 2 {
		t.Fatalf("expected 2 archives, got %+v", list.Archives)
	}
	seen := map[string]bool{}
	for _, a := range list.Archives {
		if a.Minutes != nil {
			t.Fatalf("listing must not carry documents: %+v", a)
		}
		seen[a.RoomCode] = true
	}
	if !seen["A1"] || !seen["B2"] {
		t.Fatalf("unexpected codes %+v", list.Archives)
	}

	if status := doJSON(t, ts, http.MethodGet, "/api/archive?limit=1", kim, nil, &list); status != http.StatusOK || len(list.Archives) != 1 {
		t.Fatalf("limit=1: status %d, %d archives", status, len(list.Archives))
	}

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{name: "member", path: "/api/archive", token: park, status: http.StatusForbidden},
		{name: "bad limit", path: "/api/archive?limit=abc", token: kim, status: http.StatusBadRequest},
		{name: "no token", path: "/api/archive", token: "", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := doJSON(t, ts, http.MethodGet, tt.path, tt.token, nil, nil); status != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, status)
			}
		})
	}
}
