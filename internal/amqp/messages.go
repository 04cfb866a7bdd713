package amqp

import (
	"encoding/json"
	"time"

	"contributi/internal/core"
)

// Event types published on the contributions exchange.
const (
	EventContributionCreated = "contribution.created"
	EventContributionDeleted = "contribution.deleted"
)

// ContributionEvent notifies listeners that a contribution changed.
// Deleted events only carry the ID.
type ContributionEvent struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	MonthYear string    `json:"month_year,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCreatedEvent builds the event for a freshly stored contribution.
func NewCreatedEvent(c core.Contribution) *ContributionEvent {
	return &ContributionEvent{
		Type:      EventContributionCreated,
		ID:        c.ID,
		Name:      c.Name,
		Amount:    c.Amount,
		MonthYear: c.MonthYear.String(),
		Timestamp: time.Now(),
	}
}

// NewDeletedEvent builds the event for a removed contribution.
func NewDeletedEvent(id int64) *ContributionEvent {
	return &ContributionEvent{
		Type:      EventContributionDeleted,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ContributionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
