package router

import (
	"crewsync-service/internal/usecase"
	"crewsync-service/pkg/logger"
)

// SubjectRouter routes export mails to report handlers based on subject.
// Handlers are tried in registration order.
type SubjectRouter struct {
	handlers []usecase.TemplateHandler
	logger   logger.Logger
}

var _ usecase.SubjectRouter = (*SubjectRouter)(nil)

// NewSubjectRouter creates a new subject router
func NewSubjectRouter(logger logger.Logger) *SubjectRouter {
	return &SubjectRouter{
		handlers: make([]usecase.TemplateHandler, 0),
		logger:   logger,
	}
}

// Register registers a handler for specific subject patterns
func (r *SubjectRouter) Register(handler usecase.TemplateHandler) {
	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered handler", "handler", handler.Name())
}

// GetHandler returns the first handler accepting the subject, nil when none does
func (r *SubjectRouter) GetHandler(subject string) usecase.TemplateHandler {
	for _, handler := range r.handlers {
		if handler.CanHandle(subject) {
			return handler
		}
	}
	return nil
}
