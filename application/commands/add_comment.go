package commands

import (
	"strings"

	appErrors "silo-planner/pkg/errors"
	"silo-planner/pkg/utils"
)

// AddCommentCommand posts one comment for an annotation key
type AddCommentCommand struct {
	Key         string `json:"key" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
	Text        string `json:"text" validate:"required,max=65536"`
	IssueNumber int    `json:"issueNumber,omitempty" validate:"gte=0"`
}

// Validate reports missing fields the way the comments endpoint always has
func (c AddCommentCommand) Validate() error {
	if strings.TrimSpace(c.Key) == "" || strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Text) == "" {
		return appErrors.NewValidationError("Missing required fields: key, name, text").
			WithDetails(map[string]interface{}{"missing": utils.MissingFields(c)})
	}
	if err := utils.ValidateStruct(c); err != nil {
		return appErrors.NewValidationError(err.Error())
	}
	return nil
}

// AddCommentResult is the receipt returned to the caller
type AddCommentResult struct {
	Success     bool  `json:"success"`
	IssueNumber int   `json:"issueNumber"`
	ID          int64 `json:"id"`
}
