// Package tasks carries use-case commands from the API process to the
// worker process over a durable RabbitMQ queue, with task results stored
// in Redis so the submitter can poll for the outcome.
package tasks

import "encoding/json"

// DefaultQueue is the durable queue the worker consumes from.
const DefaultQueue = "users.tasks"

// Task lifecycle states stored in the result backend.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// message is the wire envelope for one submitted task.
type message struct {
	TaskID  string          `json:"task_id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// State is one task's entry in the result backend. Result holds the
// handler's outcome once Status is completed; Error is set when the
// worker itself failed before producing a result.
type State struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
