package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique job identifier with the "job_" prefix.
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewAttemptID generates a unique attempt identifier with the "att_" prefix.
func NewAttemptID() string {
	return "att_" + uuid.New().String()
}

// NewRunID generates a unique sequence-run identifier with the "run_" prefix.
func NewRunID() string {
	return "run_" + uuid.New().String()
}
