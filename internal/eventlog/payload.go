package eventlog

import "encoding/json"

// Payload schemas per event kind. Timing events (start/pause/resume/stop)
// normally carry none; the subtask choreography annotates its events so the
// auto-resume check can recognize its own pause later.

type RenamePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ReparentPayload struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

type TagPayload struct {
	Tag string `json:"tag"`
}

const (
	ReasonInsertSubtask = "insert_subtask"
	ReasonChildStopped  = "child_stopped"
)

type SubtaskPausePayload struct {
	Reason  string `json:"reason"`
	ChildID string `json:"child_id"`
}

type SubtaskStartPayload struct {
	Reason   string `json:"reason"`
	ParentID string `json:"parent_id"`
}

type AutoResumePayload struct {
	Reason  string `json:"reason"`
	ChildID string `json:"child_id"`
}

// DecodeChildID extracts the child_id annotation from a pause payload,
// returning "" when absent or undecodable.
func DecodeChildID(payload *string) string {
	if payload == nil {
		return ""
	}
	var decoded struct {
		ChildID string `json:"child_id"`
	}
	if err := json.Unmarshal([]byte(*payload), &decoded); err != nil {
		return ""
	}
	return decoded.ChildID
}

// DecodeReparentTo extracts the new parent from a reparent payload; the
// second return is false when the payload cannot be decoded.
func DecodeReparentTo(payload *string) (*string, bool) {
	if payload == nil {
		return nil, false
	}
	var decoded ReparentPayload
	if err := json.Unmarshal([]byte(*payload), &decoded); err != nil {
		return nil, false
	}
	return decoded.To, true
}
