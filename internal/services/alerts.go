package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
)

// BudgetAlerts reloads persisted state after a ledger change and reports
// every category whose utilization reached warning or danger.
type BudgetAlerts struct {
	repo       Repository
	opts       Options
	logger     *log.Logger
	invalidate func()
}

// NewBudgetAlerts watches the state in repo. invalidate, when set, is
// called before every reload to drop cached reads.
func NewBudgetAlerts(repo Repository, opts Options, logger *log.Logger, invalidate func()) *BudgetAlerts {
	if logger == nil {
		logger = log.Nop()
	}
	return &BudgetAlerts{
		repo:       repo,
		opts:       opts,
		logger:     logger.WithComponent(log.ComponentAlerts),
		invalidate: invalidate,
	}
}

// Check returns the categories at warning or danger, in category order.
func (a *BudgetAlerts) Check(ctx context.Context) ([]core.Utilization, error) {
	if a.invalidate != nil {
		a.invalidate()
	}
	t, err := NewTracker(ctx, a.repo, events.Noop{}, log.Nop(), a.opts)
	if err != nil {
		return nil, err
	}

	var alerts []core.Utilization
	for _, u := range t.BudgetStatus() {
		if u.HasLimit && u.Status != core.StatusNormal {
			alerts = append(alerts, u)
		}
	}
	return alerts, nil
}

// HandleEvent is an events consumer handler. Currency changes cannot move
// utilization and are skipped. A failed reload is returned so the event is
// redelivered.
func (a *BudgetAlerts) HandleEvent(ctx context.Context, e events.Event) error {
	if e.Type == events.CurrencyUpdated {
		return nil
	}

	alerts, err := a.Check(ctx)
	if err != nil {
		return fmt.Errorf("check budgets after %s: %w", e.Type, err)
	}

	for _, u := range alerts {
		a.logger.WarnContext(ctx, "Budget threshold reached",
			log.FieldCategory, u.Category,
			"status", string(u.Status),
			"percentage", u.Percentage.StringFixed(2),
			"spent", u.Spent.StringFixed(2),
			"limit", u.Limit.StringFixed(2),
			log.FieldEventType, e.Type,
			log.FieldEventID, e.ID)
	}
	a.logger.DebugContext(ctx, "Budgets checked",
		log.FieldEventType, e.Type,
		log.FieldCount, len(alerts))
	return nil
}
