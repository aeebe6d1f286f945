package interview

import (
	"context"
	"fmt"

	"github.com/greenroom-dev/greenroom/internal/fsm"
	"github.com/greenroom-dev/greenroom/internal/ipc"
)

// Snapshot builds the read-only wire view of the session.
func (c *Controller) Snapshot() ipc.SessionView {
	c.mu.Lock()
	session := c.session
	view := ipc.SessionView{
		Role:    session.Role,
		Mode:    string(session.Mode),
		Index:   session.Index,
		Total:   len(session.Turns),
		Pending: session.Pending,
	}
	if turn := session.CurrentTurn(); turn != nil {
		view.Question = turn.Prompt
	}
	for _, turn := range session.Turns {
		if !turn.Scored {
			continue
		}
		view.Turns = append(view.Turns, ipc.TurnView{
			Prompt:   turn.Prompt,
			Answer:   turn.Answer,
			Feedback: turn.Feedback,
			Score:    turn.Score,
		})
	}
	c.mu.Unlock()

	view.Recording = c.transcriber.IsActive()
	view.Answer = c.transcriber.Text()
	view.Interim = c.transcriber.Interim()
	return view
}

// Handle serves IPC commands for the session owner.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CmdStatus:
		view := c.Snapshot()
		return ipc.Response{OK: true, State: string(c.State()), Session: &view}
	case ipc.CmdRecord:
		return c.handleRecord(ctx)
	case ipc.CmdType:
		return c.handleType(req.Text)
	case ipc.CmdClear:
		return c.result(c.ClearAnswer(), "answer cleared")
	case ipc.CmdShow:
		return c.handleShow()
	case ipc.CmdSubmit:
		return c.handleSubmit(ctx)
	case ipc.CmdReport:
		return c.handleReport()
	case ipc.CmdReset:
		return c.result(c.Reset(ctx), "session reset")
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (c *Controller) handleRecord(ctx context.Context) ipc.Response {
	recording, err := c.ToggleRecording(ctx)
	if err != nil {
		return c.fail(err)
	}
	message := "recording stopped"
	if recording {
		message = "recording started"
	}
	return ipc.Response{OK: true, State: string(c.State()), Message: message}
}

func (c *Controller) handleType(text string) ipc.Response {
	if text == "" {
		return ipc.Response{OK: false, State: string(c.State()), Error: "type requires text"}
	}
	return c.result(c.AppendAnswer(text), "text appended")
}

func (c *Controller) handleShow() ipc.Response {
	if c.State() != fsm.StateActive {
		return c.fail(ErrNotActive)
	}
	view := c.Snapshot()
	return ipc.Response{OK: true, State: string(fsm.StateActive), Session: &view}
}

func (c *Controller) handleSubmit(ctx context.Context) ipc.Response {
	if err := c.Submit(ctx); err != nil {
		return c.fail(err)
	}
	state := c.State()
	message := "answer scored"
	if state == fsm.StateDebrief {
		message = "interview complete"
	}
	view := c.Snapshot()
	return ipc.Response{OK: true, State: string(state), Message: message, Session: &view}
}

func (c *Controller) handleReport() ipc.Response {
	state := c.State()
	if state != fsm.StateDebrief {
		return ipc.Response{OK: false, State: string(state), Error: "no completed session to report"}
	}
	view := c.Snapshot()
	return ipc.Response{OK: true, State: string(state), Session: &view}
}

func (c *Controller) result(err error, message string) ipc.Response {
	if err != nil {
		return c.fail(err)
	}
	return ipc.Response{OK: true, State: string(c.State()), Message: message}
}

func (c *Controller) fail(err error) ipc.Response {
	return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
}
