package model

import (
	"time"

	"github.com/google/uuid"
)

// Generation records one successful script generation.
type Generation struct {
	ID             string
	JobName        string
	ConfigPath     string
	ScriptPath     string
	ListPath       string
	FileCount      int
	TaskCount      int
	ConcurrencyCap int
	CreatedAt      time.Time
}

// NewGenerationID returns a fresh generation identifier.
func NewGenerationID() string {
	return "gen_" + uuid.New().String()
}
