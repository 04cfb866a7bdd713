package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"contributi/internal/amqp"
	"contributi/internal/core"
)

// ContributionStore is the persistence the service needs.
type ContributionStore interface {
	CreateContribution(ctx context.Context, c core.Contribution) (core.Contribution, error)
	ListContributions(ctx context.Context, f core.MonthFilter) ([]core.Contribution, error)
	SummarizeContributions(ctx context.Context, f core.MonthFilter) ([]core.PersonTotal, error)
	DeleteContribution(ctx context.Context, id int64) error
}

// EventPublisher receives change notifications. It may be nil.
type EventPublisher interface {
	PublishContributionEvent(ctx context.Context, ev *amqp.ContributionEvent) error
}

// ContributionService records, aggregates and removes contributions.
type ContributionService struct {
	store     ContributionStore
	publisher EventPublisher
	now       func() time.Time
}

func NewContributionService(store ContributionStore, publisher EventPublisher) *ContributionService {
	return &ContributionService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock replaces the time source, used by tests to pin "now".
func (s *ContributionService) WithClock(now func() time.Time) *ContributionService {
	s.now = now
	return s
}

// Now returns the current time as seen by the service.
func (s *ContributionService) Now() time.Time {
	return s.now()
}

// CurrentMonth returns the month key of Now.
func (s *ContributionService) CurrentMonth() core.MonthKey {
	return core.MonthKeyOf(s.now())
}

// LastMonth returns the month key preceding CurrentMonth.
func (s *ContributionService) LastMonth() core.MonthKey {
	return core.PreviousMonth(s.now())
}

// Record stores a contribution dated today. Invalid input is reported as a
// core.ErrValidation error and nothing is written.
func (s *ContributionService) Record(ctx context.Context, name string, amount float64, details string) (core.Contribution, error) {
	c := core.NewContribution(name, amount, details, s.now())
	if err := c.Validate(); err != nil {
		return core.Contribution{}, core.Invalid(err)
	}

	saved, err := s.store.CreateContribution(ctx, c)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("save contribution: %w", err)
	}

	s.publish(ctx, amqp.NewCreatedEvent(saved))
	return saved, nil
}

// List returns contributions matching f in date order.
func (s *ContributionService) List(ctx context.Context, f core.MonthFilter) ([]core.Contribution, error) {
	items, err := s.store.ListContributions(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []core.Contribution{}
	}
	return items, nil
}

// Summary returns one total per contributor name matching f.
func (s *ContributionService) Summary(ctx context.Context, f core.MonthFilter) ([]core.PersonTotal, error) {
	rows, err := s.store.SummarizeContributions(ctx, f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []core.PersonTotal{}
	}
	return rows, nil
}

// Overview loads list and summary for f concurrently.
func (s *ContributionService) Overview(ctx context.Context, f core.MonthFilter) (core.MonthOverview, error) {
	ov := core.MonthOverview{Filter: f}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.List(gctx, f)
		if err != nil {
			return fmt.Errorf("list contributions: %w", err)
		}
		ov.Contributions = items
		return nil
	})
	g.Go(func() error {
		rows, err := s.Summary(gctx, f)
		if err != nil {
			return fmt.Errorf("summarize contributions: %w", err)
		}
		ov.Summary = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.MonthOverview{}, err
	}

	slog.DebugContext(ctx, "Overview loaded",
		"month", f.Label(),
		"contributions", len(ov.Contributions),
		"people", len(ov.Summary))
	return ov, nil
}

// All returns every contribution, for moderation.
func (s *ContributionService) All(ctx context.Context) ([]core.Contribution, error) {
	return s.List(ctx, core.AllMonths())
}

// Remove deletes a contribution. A missing id yields core.ErrNotFound.
func (s *ContributionService) Remove(ctx context.Context, id int64) error {
	if err := s.store.DeleteContribution(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

// publish never fails the caller: the write already happened.
func (s *ContributionService) publish(ctx context.Context, ev *amqp.ContributionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishContributionEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish contribution event",
			"type", ev.Type, "id", ev.ID, "error", err)
	}
}
