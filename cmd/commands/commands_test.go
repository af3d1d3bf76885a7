package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// A Monday far enough ahead that "today" never interferes.
const (
	day1 = "2030-01-07"
	day2 = "2030-01-08"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("DAYPLANNER_PATH", home)
	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = prev })
	return home
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.Writer = &out
	cmd.ErrWriter = io.Discard
	cmd.Reader = strings.NewReader(stdin)
	err := cmd.Run(context.Background(), append([]string{"dayplanner"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	if err != nil {
		t.Fatalf("dayplanner %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func listJSON(t *testing.T, args ...string) []tasks.Task {
	t.Helper()
	out := mustRun(t, append([]string{"list", "--json"}, args...)...)
	var list []tasks.Task
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode list output %q: %v", out, err)
	}
	return list
}

func TestAddListAndOverlap(t *testing.T) {
	setupHome(t)

	out := mustRun(t, "add", "--day", day1, "--start", "09:00", "--end", "09:15", "Daily", "standup")
	if !strings.Contains(out, `"Daily standup"`) {
		t.Fatalf("add output: %q", out)
	}
	mustRun(t, "add", "--day", day1, "--start", "09:15", "-p", "high", "Review")

	_, err := run(t, "", "add", "--day", day1, "--start", "09:30", "Clash")
	if err == nil || !strings.Contains(err.Error(), "overlaps") {
		t.Fatalf("expected overlap error, got %v", err)
	}
	_, err = run(t, "", "add", "--day", day1, "--start", "11:00", "--end", "10:00", "Backwards")
	if err == nil || !strings.Contains(err.Error(), "end time must be after start time") {
		t.Fatalf("expected interval error, got %v", err)
	}
	if _, err := run(t, "", "add", "--start", "12:00"); err == nil {
		t.Fatal("expected usage error without a title")
	}

	list := listJSON(t, "--day", day1)
	if len(list) != 2 {
		t.Fatalf("list: got %d tasks, want 2", len(list))
	}
	if list[0].Title != "Daily standup" || list[1].Title != "Review" {
		t.Fatalf("list order: %q, %q", list[0].Title, list[1].Title)
	}
	if list[1].Priority != tasks.PriorityHigh || list[1].Duration().Hours() != 1 {
		t.Fatalf("review: %+v", list[1])
	}

	table := mustRun(t, "list", "--day", day1)
	if !strings.Contains(table, "TITLE") || !strings.Contains(table, "09:15-10:15") {
		t.Fatalf("table output: %q", table)
	}
}

func TestAddAfterChainsTasks(t *testing.T) {
	setupHome(t)
	mustRun(t, "add", "--day", day1, "--start", "09:00", "--duration", "30m", "First")
	first := listJSON(t)[0]

	mustRun(t, "add", "--after", first.ID, "Second")
	list := listJSON(t)
	if len(list) != 2 || !list[1].Start.Equal(first.End) {
		t.Fatalf("second task should start at %v, got %+v", first.End, list)
	}
}

func TestDoneReopenEditMove(t *testing.T) {
	setupHome(t)
	mustRun(t, "add", "--day", day1, "--start", "09:00", "Review")
	id := listJSON(t)[0].ID

	mustRun(t, "done", id)
	if got := listJSON(t, "--status", "completed"); len(got) != 1 || got[0].CompletedAt == nil {
		t.Fatalf("done: %+v", got)
	}
	mustRun(t, "reopen", id)
	if got := listJSON(t, "--status", "pending"); len(got) != 1 {
		t.Fatalf("reopen: %+v", got)
	}

	if _, err := run(t, "", "edit", id); err == nil {
		t.Fatal("edit without flags should fail")
	}
	mustRun(t, "edit", "--title", "Code review", "--start", "14:00", id)
	mustRun(t, "move", id, day2)

	out := mustRun(t, "show", "--json", id)
	var got tasks.Task
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	if got.Title != "Code review" || got.Start.Format("2006-01-02 15:04") != day2+" 14:00" {
		t.Fatalf("unexpected task %+v", got)
	}

	mustRun(t, "reschedule", id, "16:00", "16:30")
	if got := listJSON(t)[0]; got.Start.Hour() != 16 || got.Duration().Minutes() != 30 {
		t.Fatalf("reschedule: %+v", got)
	}

	mustRun(t, "delete", id)
	if _, err := run(t, "", "show", id); err == nil || !strings.Contains(err.Error(), "task not found") {
		t.Fatalf("show deleted: %v", err)
	}
}

func TestCompleteAndClearDay(t *testing.T) {
	setupHome(t)
	mustRun(t, "add", "--day", day1, "--start", "09:00", "A")
	mustRun(t, "add", "--day", day1, "--start", "10:00", "B")
	mustRun(t, "add", "--day", day2, "--start", "09:00", "C")

	out := mustRun(t, "complete-day", day1)
	if !strings.Contains(out, "Completed 2 task(s)") {
		t.Fatalf("complete-day: %q", out)
	}

	if _, err := run(t, "", "clear-day", day1); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("clear-day without a terminal should require --yes, got %v", err)
	}

	stdinIsTerminal = func() bool { return true }
	out, err := run(t, "n\n", "clear-day", day1)
	if err != nil || !strings.Contains(out, "Aborted") {
		t.Fatalf("declined clear-day: %q, %v", out, err)
	}
	if n := len(listJSON(t)); n != 3 {
		t.Fatalf("declined clear-day removed tasks: %d left", n)
	}

	out, err = run(t, "y\n", "clear-day", day1)
	if err != nil || !strings.Contains(out, "Deleted 2 task(s)") || !strings.Contains(out, "Saved backup") {
		t.Fatalf("clear-day: %q, %v", out, err)
	}
	if list := listJSON(t); len(list) != 1 || list[0].Title != "C" {
		t.Fatalf("remaining: %+v", list)
	}

	// The pre-clear snapshot brings the day back.
	out = mustRun(t, "backup", "restore")
	if !strings.Contains(out, "Restored 3 task(s)") {
		t.Fatalf("restore: %q", out)
	}
}

func TestExportImport(t *testing.T) {
	home := setupHome(t)
	mustRun(t, "add", "--day", day1, "--start", "09:00", "A")
	mustRun(t, "add", "--day", day1, "--start", "10:00", "B")
	before := listJSON(t)

	path := filepath.Join(home, "plan.yaml")
	if out := mustRun(t, "export", path); !strings.Contains(out, "Exported 2 task(s)") {
		t.Fatalf("export: %q", out)
	}

	mustRun(t, "clear-day", "--yes", day1)
	if n := len(listJSON(t)); n != 0 {
		t.Fatalf("clear-day left %d tasks", n)
	}

	mustRun(t, "import", path)
	after := listJSON(t)
	if len(after) != 2 || after[0].ID != before[0].ID || !after[1].Start.Equal(before[1].Start) {
		t.Fatalf("import mismatch: before %+v, after %+v", before, after)
	}

	overlapping := `[{"id":"a","title":"A","start":"2030-01-07T09:00:00Z","end":"2030-01-07T10:00:00Z"},` +
		`{"id":"b","title":"B","start":"2030-01-07T09:30:00Z","end":"2030-01-07T10:30:00Z"}]`
	if _, err := run(t, overlapping, "import", "--format", "json", "-"); err == nil {
		t.Fatal("importing overlapping tasks should fail")
	}
	if n := len(listJSON(t)); n != 2 {
		t.Fatalf("failed import changed the collection: %d tasks", n)
	}
}

func TestHistoryAndStatus(t *testing.T) {
	setupHome(t)
	mustRun(t, "add", "--day", day1, "--start", "09:00", "A")
	id := listJSON(t)[0].ID
	mustRun(t, "done", id)

	out := mustRun(t, "history", "--json", "--task", id)
	var list []events.Event
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(list) != 2 || list[0].Type != events.EventTaskCreated || list[1].Type != events.EventTaskCompleted {
		t.Fatalf("history: %+v", list)
	}
	if list[0].Source != events.SourceCLI {
		t.Fatalf("Source: got %q, want %q", list[0].Source, events.SourceCLI)
	}

	if out := mustRun(t, "history", "--type", "day."); !strings.Contains(out, "No history found") {
		t.Fatalf("filtered history: %q", out)
	}
	if out := mustRun(t, "status"); !strings.Contains(out, "NOT RUNNING") {
		t.Fatalf("status: %q", out)
	}
}
