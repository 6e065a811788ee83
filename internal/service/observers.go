package service

import (
	"context"
	"log"

	"bookingwatch/internal/domain"
	"bookingwatch/internal/repository"
)

// JournalObserver persists observed transitions to the transition journal.
// Journal failures are logged and swallowed; the journal is an audit aid
// and must never disturb the polling loop.
type JournalObserver struct {
	repo repository.TransitionRepository
}

// NewJournalObserver creates a journal observer.
func NewJournalObserver(repo repository.TransitionRepository) *JournalObserver {
	return &JournalObserver{repo: repo}
}

// ObserveTransition records the transition.
func (o *JournalObserver) ObserveTransition(ctx context.Context, t *domain.Transition) {
	if err := o.repo.Record(ctx, t); err != nil {
		log.Printf("journal transition for booking %s: %v", t.BookingID, err)
	}
}
