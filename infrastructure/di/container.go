package di

import (
	"silo-planner/application/commands/bus"
	"silo-planner/application/ports"
	querybus "silo-planner/application/queries/bus"
	"silo-planner/infrastructure/config"
	"silo-planner/interfaces/http/rest"
	"silo-planner/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Tracer       *observability.Tracer
	Metrics      *Metrics
	CommentStore ports.CommentStore
	RoadmapStore ports.RoadmapStore
	Publisher    ports.EventPublisher
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Router       *rest.Router
}
