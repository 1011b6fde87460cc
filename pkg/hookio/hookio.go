// Package hookio handles the wire format between the host lifecycle event
// and the engine: the JSON payload arriving on stdin and the hook response
// written to stdout.
package hookio

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// SessionStartEvent is the lifecycle event name this engine answers
const SessionStartEvent = "SessionStart"

// SessionStartPayload is the host-supplied trigger payload. All fields are
// informational; unknown fields are ignored and a missing or malformed
// payload is treated as empty.
type SessionStartPayload struct {
	HookEventName  string `json:"hook_event_name"`
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	Source         string `json:"source"`
}

// ReadPayload decodes the lifecycle payload from r. It is deliberately
// lenient: any read or decode failure yields an empty payload, never an
// error, because the payload only carries context this engine can do
// without.
func ReadPayload(r io.Reader) *SessionStartPayload {
	payload := &SessionStartPayload{}

	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return payload
	}

	// Ignore decode errors; a bad payload is equivalent to none.
	_ = json.Unmarshal(data, payload)
	return payload
}

// SpecificOutput is the hook-protocol portion of the response
type SpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// Output is the full hook response emitted on stdout
type Output struct {
	SystemMessage      string         `json:"systemMessage"`
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

// NewSessionStartOutput wraps the rendered catalog in the hook response
// envelope.
func NewSessionStartOutput(catalog string) Output {
	return Output{
		SystemMessage: "The following skills have been auto-discovered and are available for use: " + catalog,
		HookSpecificOutput: SpecificOutput{
			HookEventName:     SessionStartEvent,
			AdditionalContext: catalog,
		},
	}
}

// WriteOutput encodes the hook response to w
func WriteOutput(w io.Writer, out Output) error {
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return errors.Wrap(err, "failed to encode hook output")
	}
	return nil
}
