package history

import (
	"database/sql"
	"encoding/json"
	"time"
)

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeRemoteError    Outcome = "remote_error"
	OutcomeTransportError Outcome = "transport_error"
)

const dbschema = `
CREATE TABLE IF NOT EXISTS invocations (
    id TEXT PRIMARY KEY,
    workflow_id TEXT NOT NULL,
    endpoint TEXT NOT NULL,
    parameters TEXT NOT NULL,
    outcome TEXT NOT NULL,
    status_code INTEGER,
    body TEXT,
    error TEXT,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_invocations_workflow_id ON invocations(workflow_id);
`

const (
	QueryCreateInvocation = `
        INSERT INTO invocations (id, workflow_id, endpoint, parameters, outcome, status_code, body, error, started_at, ended_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	QueryLoadInvocation = `
        SELECT id, workflow_id, endpoint, parameters, outcome, status_code, body, error, started_at, ended_at, created_at
        FROM invocations
        WHERE id = ?
    `

	QueryListInvocations = `
		SELECT id, workflow_id, endpoint, parameters, outcome, status_code, body, error, started_at, ended_at, created_at
		FROM invocations
		WHERE (? = '' OR workflow_id = ?)
			AND (? = '' OR outcome = ?)
		ORDER BY created_at DESC, started_at DESC
		LIMIT ? OFFSET ?
	`
)

// Invocation is one recorded call to the workflow API.
type Invocation struct {
	ID         string         `db:"id"`
	WorkflowID string         `db:"workflow_id"`
	Endpoint   string         `db:"endpoint"`
	Parameters string         `db:"parameters"` // JSON object
	Outcome    Outcome        `db:"outcome"`
	StatusCode sql.NullInt64  `db:"status_code"`
	Body       sql.NullString `db:"body"`
	Error      sql.NullString `db:"error"`
	StartedAt  time.Time      `db:"started_at"`
	EndedAt    time.Time      `db:"ended_at"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Duration is the wall time of the call.
func (i *Invocation) Duration() time.Duration {
	return i.EndedAt.Sub(i.StartedAt)
}

// MarshalInvocation converts an Invocation to JSON bytes.
func MarshalInvocation(i *Invocation) ([]byte, error) {
	type invocationOutput struct {
		ID         string          `json:"id"`
		WorkflowID string          `json:"workflow_id"`
		Endpoint   string          `json:"endpoint"`
		Parameters json.RawMessage `json:"parameters"`
		Outcome    string          `json:"outcome"`
		StatusCode *int64          `json:"status_code,omitempty"`
		Body       *string         `json:"body,omitempty"`
		Error      *string         `json:"error,omitempty"`
		StartedAt  time.Time       `json:"started_at"`
		EndedAt    time.Time       `json:"ended_at"`
		CreatedAt  time.Time       `json:"created_at"`
	}

	var statusCode *int64
	if i.StatusCode.Valid {
		statusCode = &i.StatusCode.Int64
	}

	var body *string
	if i.Body.Valid {
		body = &i.Body.String
	}

	var errText *string
	if i.Error.Valid {
		errText = &i.Error.String
	}

	parameters := json.RawMessage(i.Parameters)
	if !json.Valid(parameters) {
		parameters = json.RawMessage("{}")
	}

	return json.Marshal(invocationOutput{
		ID:         i.ID,
		WorkflowID: i.WorkflowID,
		Endpoint:   i.Endpoint,
		Parameters: parameters,
		Outcome:    string(i.Outcome),
		StatusCode: statusCode,
		Body:       body,
		Error:      errText,
		StartedAt:  i.StartedAt,
		EndedAt:    i.EndedAt,
		CreatedAt:  i.CreatedAt,
	})
}
