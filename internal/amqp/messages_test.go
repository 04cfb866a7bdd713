package amqp

import (
	"strings"
	"testing"
	"time"

	"contributi/internal/core"
)

func TestNewCreatedEvent(t *testing.T) {
	c := core.NewContribution("Alice", 50, "note", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	c.ID = 7

	ev := NewCreatedEvent(c)
	if ev.Type != EventContributionCreated || ev.ID != 7 || ev.MonthYear != "03-2024" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"type":"contribution.created"`, `"id":7`, `"name":"Alice"`, `"amount":50`, `"month_year":"03-2024"`} {
		if !strings.Contains(string(body), field) {
			t.Errorf("created event missing %s: %s", field, body)
		}
	}
}

func TestDeletedEventOmitsPayload(t *testing.T) {
	body, err := NewDeletedEvent(3).ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"name"`, `"amount"`, `"month_year"`} {
		if strings.Contains(string(body), field) {
			t.Fatalf("deleted event should omit %s: %s", field, body)
		}
	}
}
