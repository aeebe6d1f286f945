// Package ipc implements the unix-socket control protocol for a session owner.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Command names one interview operation a client can ask the owner to run.
type Command string

const (
	CmdStatus Command = "status"
	CmdRecord Command = "record"
	CmdType   Command = "type"
	CmdClear  Command = "clear"
	CmdShow   Command = "show"
	CmdSubmit Command = "submit"
	CmdReport Command = "report"
	CmdReset  Command = "reset"
)

// Known reports whether the command is part of the protocol. The server
// rejects unknown commands before they reach the session handler.
func (c Command) Known() bool {
	switch c {
	case CmdStatus, CmdRecord, CmdType, CmdClear, CmdShow, CmdSubmit, CmdReport, CmdReset:
		return true
	default:
		return false
	}
}

// Request is one command sent to the owning greenroom process. Text carries
// the payload for commands that take one (currently only CmdType).
type Request struct {
	Command Command `json:"command"`
	Text    string  `json:"text,omitempty"`
}

// TurnView is the wire form of one question/answer/feedback exchange.
type TurnView struct {
	Prompt   string  `json:"prompt"`
	Answer   string  `json:"answer,omitempty"`
	Feedback string  `json:"feedback,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// SessionView is a read-only snapshot of owner session state.
type SessionView struct {
	Role      string     `json:"role"`
	Mode      string     `json:"mode"`
	Index     int        `json:"index"`
	Total     int        `json:"total"`
	Question  string     `json:"question,omitempty"`
	Answer    string     `json:"answer,omitempty"`
	Interim   string     `json:"interim,omitempty"`
	Recording bool       `json:"recording"`
	Pending   bool       `json:"pending"`
	Turns     []TurnView `json:"turns,omitempty"`
}

type Response struct {
	OK      bool         `json:"ok"`
	State   string       `json:"state,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Session *SessionView `json:"session,omitempty"`
}

// Messages travel as single JSON lines in both directions. Both ends of the
// socket share this framing.

func writeMessage(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func readMessage(r *bufio.Reader, v any) error {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return err
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
