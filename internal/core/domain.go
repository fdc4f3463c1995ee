package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date with no meaningful time component. All
	// comparisons go through year/month/day so results never drift with
	// the timezone of the wall clock that produced them.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single recorded expense. ID, CreatedAt and UpdatedAt
	// are assigned by the store.
	Expense struct {
		ID          string
		UserID      string
		Category    Category
		Amount      Money
		Date        Date
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Budget is the monthly spending limit for one user. At most one
	// record exists per (UserID, Year, Month); the store layer enforces
	// the key, the budget reconciler depends on it.
	Budget struct {
		ID        string
		UserID    string
		Year      int
		Month     int // 1-12
		Amount    Money
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyUserID      = errors.New("empty user id")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	dy, dm, dd := d.Time.Date()
	oy, om, od := other.Time.Date()
	if dy != oy {
		return dy < oy
	}
	if dm != om {
		return dm < om
	}
	return dd < od
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Equal reports whether two dates fall on the same calendar day.
func (d Date) Equal(other Date) bool {
	return !d.Before(other) && !other.Before(d)
}

// In reports whether d falls within the inclusive window [start, end].
func (d Date) In(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

// AddDays returns the date n calendar days after d. Negative n goes back.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time.AddDate(0, 0, n))
}

// MonthBounds returns the first and last day of d's calendar month.
func (d Date) MonthBounds() (first, last Date) {
	first = NewDate(d.Year(), d.Month(), 1)
	last = DateOf(first.Time.AddDate(0, 1, -1))
	return first, last
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return e.Amount.Validate()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUserID
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	return b.Amount.Validate()
}
