package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	core "github.com/cuongbtq/farmhand/internal/domain"
)

// DecidedApplication is the stored state the worker needs to issue a contract
type DecidedApplication struct {
	ApplicationID int64                  `db:"application_id"`
	JobID         int64                  `db:"job_id"`
	JobTitle      string                 `db:"job_title"`
	Pay           string                 `db:"pay"`
	StartDate     string                 `db:"start_date"`
	WorkerID      string                 `db:"worker_id"`
	GrowerID      string                 `db:"grower_id"`
	FarmName      *string                `db:"farm_name"`
	Status        core.ApplicationStatus `db:"status"`
}

// ParseEvent decodes a message body and checks the fields the worker relies on
func ParseEvent(body []byte) (core.DecisionEvent, error) {
	var ev core.DecisionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if _, err := uuid.Parse(ev.EventID); err != nil {
		return ev, fmt.Errorf("%w: event_id %q is not a UUID", ErrInvalidEvent, ev.EventID)
	}
	if ev.ApplicationID <= 0 {
		return ev, fmt.Errorf("%w: application_id must be positive", ErrInvalidEvent)
	}
	return ev, nil
}
