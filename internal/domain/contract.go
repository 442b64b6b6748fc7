package domain

import "time"

// ContractStatusIssued marks a contract generated for an accepted application
const ContractStatusIssued = "issued"

// Contract is the work agreement issued once a grower accepts an application
type Contract struct {
	ID            string    `json:"id"`
	ApplicationID int64     `json:"application_id"`
	JobID         int64     `json:"job_id"`
	JobTitle      string    `json:"job_title"`
	Pay           string    `json:"pay"`
	StartDate     string    `json:"start_date"`
	WorkerID      string    `json:"worker_id"`
	GrowerID      string    `json:"grower_id"`
	FarmName      string    `json:"farm_name,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// DecisionEvent is published when a reviewer accepts or rejects an application
type DecisionEvent struct {
	EventID       string            `json:"event_id"`
	ApplicationID int64             `json:"application_id"`
	Status        ApplicationStatus `json:"status"`
	DecidedBy     string            `json:"decided_by"`
	DecidedAt     time.Time         `json:"decided_at"`
}
