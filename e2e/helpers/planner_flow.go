// Command planner_flow exercises the task lifecycle against a running
// dayplanner gateway.
//
// It creates a task over HTTP, completes and deletes it over the WebSocket,
// and checks that each step is pushed back as an event. A second task that
// overlaps the first must be rejected with 409.
//
// Usage: planner_flow -gateway http://127.0.0.1:PORT -day 2030-01-07
//
// Exit codes:
//
//	0 = all checks passed
//	1 = a check failed
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	wsclient "github.com/dohr-michael/dayplanner/clients/ws"
	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/gateway/ws"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

func main() {
	gatewayURL := flag.String("gateway", "http://127.0.0.1:18430", "Gateway base URL")
	day := flag.String("day", "2030-01-07", "Day to plan the probe tasks on (should be empty)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, strings.TrimSuffix(*gatewayURL, "/"), *day); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, base, day string) error {
	// ── Step 1: Connect ─────────────────────────────────────────────────
	client, err := wsclient.Dial(ctx, "ws"+strings.TrimPrefix(base, "http")+"/api/ws")
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()
	fmt.Println("CHECK ws connected")

	// ── Step 2: Create over HTTP, expect task.created ───────────────────
	task, status, err := createTask(ctx, base, tasks.DraftInput{Title: "e2e probe", Day: day, Start: "09:00", Duration: "30m"})
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("create: status %d", status)
	}
	if err := waitEvent(client, events.EventTaskCreated, task.ID); err != nil {
		return err
	}
	fmt.Printf("CHECK task created: %s\n", task.ID)

	// ── Step 3: Overlap is rejected ─────────────────────────────────────
	_, status, err = createTask(ctx, base, tasks.DraftInput{Title: "e2e clash", Day: day, Start: "09:15"})
	if err != nil {
		return err
	}
	if status != http.StatusConflict {
		return fmt.Errorf("overlapping create: want 409, got %d", status)
	}
	fmt.Println("CHECK overlap rejected")

	// ── Step 4: Complete and delete over WS ─────────────────────────────
	for _, step := range []struct {
		method ws.Method
		event  events.EventType
	}{
		{ws.MethodCompleteTask, events.EventTaskCompleted},
		{ws.MethodDeleteTask, events.EventTaskDeleted},
	} {
		if _, err := client.Send(step.method, ws.TaskParams{ID: task.ID}); err != nil {
			return fmt.Errorf("%s: %w", step.method, err)
		}
		if err := waitEvent(client, step.event, task.ID); err != nil {
			return err
		}
		fmt.Printf("CHECK %s -> %s\n", step.method, step.event)
	}

	fmt.Println("CHECK all flow checks passed")
	return nil
}

func createTask(ctx context.Context, base string, in tasks.DraftInput) (tasks.Task, int, error) {
	body, _ := json.Marshal(in)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/tasks", bytes.NewReader(body))
	if err != nil {
		return tasks.Task{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return tasks.Task{}, 0, fmt.Errorf("create: %w", err)
	}
	defer resp.Body.Close()

	var t tasks.Task
	if resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
			return tasks.Task{}, 0, fmt.Errorf("decode task: %w", err)
		}
	}
	return t, resp.StatusCode, nil
}

// waitEvent reads frames until an event of type want about taskID arrives.
// An error response to one of our requests fails the flow.
func waitEvent(client *wsclient.Client, want events.EventType, taskID string) error {
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", want, err)
		}
		if frame.Type == ws.FrameTypeResponse && frame.OK != nil && !*frame.OK {
			return fmt.Errorf("request %s failed: %s", frame.ID, frame.Error)
		}
		if frame.Event != string(want) {
			continue
		}
		var evt events.Event
		if err := json.Unmarshal(frame.Payload, &evt); err != nil {
			continue
		}
		if events.TaskID(evt) == taskID {
			return nil
		}
	}
}
