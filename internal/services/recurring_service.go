package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"financemanager/internal/logger"
	"financemanager/internal/repository"
)

// maxCatchUp bounds how many missed occurrences one template may produce in
// a single run.
const maxCatchUp = 400

// RecurringRun summarises one pass of the recurring sweep.
type RecurringRun struct {
	AsOf      time.Time `json:"as_of"`
	Templates int       `json:"templates"`
	Created   int       `json:"created"`
	Failed    int       `json:"failed"`
}

// recurringService materialises recurring transactions that have fallen due.
type recurringService struct {
	store repository.Store
	log   *zap.SugaredLogger
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(store repository.Store) RecurringServicer {
	return &recurringService{store: store, log: logger.Named("recurring")}
}

// ProcessDue creates every occurrence due on or before asOf, catching up on
// missed periods. Each occurrence is inserted together with its template's
// schedule advance, so rerunning for the same day creates nothing new. A
// template that fails is logged and skipped.
//
// Two sweeps running at the same moment can both pass the due check; the
// sweep is expected to run from a single scheduler.
func (s *recurringService) ProcessDue(ctx context.Context, asOf time.Time) (*RecurringRun, error) {
	asOf = asOf.UTC()
	templates, err := s.store.DueRecurringTransactions(ctx, asOf)
	if err != nil {
		return nil, err
	}

	run := &RecurringRun{AsOf: asOf, Templates: len(templates)}
	for _, template := range templates {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		created, err := s.catchUp(ctx, template.ID, asOf)
		run.Created += created
		if err != nil {
			run.Failed++
			s.log.Errorw("failed to process recurring transaction",
				"template_id", template.ID,
				"user_id", template.UserID,
				"created", created,
				"error", err,
			)
		}
	}

	s.log.Infow("recurring sweep finished",
		"as_of", asOf.Format(time.DateOnly),
		"templates", run.Templates,
		"created", run.Created,
		"failed", run.Failed,
	)
	return run, nil
}

func (s *recurringService) catchUp(ctx context.Context, templateID uint, asOf time.Time) (int, error) {
	created := 0
	for created < maxCatchUp {
		occurrence, err := s.store.MaterializeRecurrence(ctx, templateID, asOf)
		if err != nil {
			return created, err
		}
		if occurrence == nil {
			return created, nil
		}
		created++
	}
	s.log.Warnw("recurring catch-up limit reached", "template_id", templateID, "created", created)
	return created, nil
}
