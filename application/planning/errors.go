package planning

import (
	"errors"
	"time"

	"silo-planner/domain/core/aggregates"
	appErrors "silo-planner/pkg/errors"
)

// translate maps aggregate errors onto application error kinds
func translate(err error) error {
	switch {
	case errors.Is(err, aggregates.ErrPathNotFound),
		errors.Is(err, aggregates.ErrInitiativeNotFound),
		errors.Is(err, aggregates.ErrModuleNotFound):
		notFound := appErrors.NewNotFoundError("roadmap item").WithCause(err)
		notFound.Message = err.Error()
		return notFound
	case errors.Is(err, aggregates.ErrNameRequired),
		errors.Is(err, aggregates.ErrIndexOutOfRange):
		return appErrors.NewValidationError(err.Error()).WithCause(err)
	default:
		return err
	}
}

type noopMetrics struct{}

func (noopMetrics) CommentSubmitted(string)                          {}
func (noopMetrics) CommentsReconciled(string)                        {}
func (noopMetrics) RoadmapSaved(string, time.Duration)               {}
func (noopMetrics) RemoteCall(string, string, string, time.Duration) {}
