package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MonthKeyLayout is the time layout of a month key (strftime %m-%Y).
const MonthKeyLayout = "01-2006"

const (
	maxNameLength    = 100
	maxDetailsLength = 2000
)

type (
	// MonthKey identifies a calendar month as MM-YYYY.
	MonthKey string

	Date struct {
		time.Time
	}

	// Contribution is a single payment recorded for a person.
	Contribution struct {
		ID        int64
		Name      string
		Amount    float64
		Date      Date
		MonthYear MonthKey
		Details   string
	}

	// Admin is an operator allowed to moderate contributions.
	Admin struct {
		ID       int64
		Username string
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyName      = errors.New("empty name")
	ErrNameTooLong    = errors.New("name too long (max 100 characters)")
	ErrDetailsTooLong = errors.New("details too long (max 2000 characters)")
	ErrInvalidMonth   = errors.New("invalid month, expected MM-YYYY")
	ErrMonthMismatch  = errors.New("month_year does not match date")
	ErrEmptyUsername  = errors.New("empty username")
	ErrNotFound       = errors.New("not found")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping the wall clock date of t.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// MonthKeyOf returns the month key for t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(MonthKeyLayout))
}

// ParseMonthKey parses a strict MM-YYYY month key.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(MonthKeyLayout, s)
	if err != nil || t.Format(MonthKeyLayout) != s {
		return "", ErrInvalidMonth
	}
	return MonthKey(s), nil
}

// PreviousMonth returns the key of the month before the one containing now.
func PreviousMonth(now time.Time) MonthKey {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return MonthKeyOf(first.AddDate(0, 0, -1))
}

func (k MonthKey) String() string {
	return string(k)
}

// NewContribution builds a contribution recorded at now. Date and MonthYear
// are derived together from now.
func NewContribution(name string, amount float64, details string, now time.Time) Contribution {
	date := DateOf(now)
	return Contribution{
		Name:      name,
		Amount:    amount,
		Date:      date,
		MonthYear: MonthKeyOf(date.Time),
		Details:   details,
	}
}

func (c Contribution) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > maxNameLength {
		return ErrNameTooLong
	}
	if len(c.Details) > maxDetailsLength {
		return ErrDetailsTooLong
	}
	if err := ValidateAmount(c.Amount); err != nil {
		return err
	}
	if err := c.Date.Validate(); err != nil {
		return err
	}
	if MonthKeyOf(c.Date.Time) != c.MonthYear {
		return ErrMonthMismatch
	}
	return nil
}

func (a Admin) Validate() error {
	if strings.TrimSpace(a.Username) == "" {
		return ErrEmptyUsername
	}
	if len(a.Username) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// ErrValidation marks errors caused by bad user input.
var ErrValidation = errors.New("validation failed")

// Invalid wraps err so that errors.Is(err, ErrValidation) holds.
func Invalid(err error) error {
	if err == nil || errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
