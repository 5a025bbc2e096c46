package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/events"
)

// EscalationWorker receives breach events and hands each one to the
// escalation channel. The current channel is the structured log stream,
// which downstream alerting already tails.
type EscalationWorker struct {
	logger *zap.Logger
}

// NewEscalationWorker constructs the worker.
func NewEscalationWorker(logger *zap.Logger) *EscalationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationWorker{logger: logger}
}

// Register subscribes the worker on the dispatcher.
func (w *EscalationWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventSLABreachDetected, w.handleBreach)
}

func (w *EscalationWorker) handleBreach(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SLABreachDetectedPayload)
	if !ok {
		w.logger.Warn("unexpected breach event payload", zap.String("event_id", event.ID))
		return nil
	}
	for _, breach := range payload.Report.Events {
		types := make([]string, 0, len(breach.Types))
		for _, t := range breach.Types {
			types = append(types, string(t))
		}
		w.logger.Warn("escalating sla breach",
			zap.String("ticket_id", breach.TicketID),
			zap.String("ticket_number", breach.TicketNumber),
			zap.Strings("breach_types", types),
			zap.Time("response_due", breach.ResponseDue),
			zap.Time("resolution_due", breach.ResolutionDue),
			zap.String("status", string(breach.CurrentStatus)),
			zap.Time("detected_at", payload.Report.SweptAt),
		)
	}
	return nil
}
