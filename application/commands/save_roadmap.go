package commands

import (
	"encoding/json"

	"silo-planner/domain/core/aggregates"
	appErrors "silo-planner/pkg/errors"
)

// SaveRoadmapCommand overwrites the stored roadmap document
type SaveRoadmapCommand struct {
	Roadmap *aggregates.Roadmap
}

// Validate implements bus.Command
func (c SaveRoadmapCommand) Validate() error {
	if c.Roadmap == nil {
		return appErrors.NewValidationError("roadmap body is required")
	}
	return nil
}

// SaveRoadmapResult echoes the store's receipt
type SaveRoadmapResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
}
