package model

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalid marks every validation failure so callers can map it with
// errors.Is.
var ErrInvalid = errors.New("invalid")

// FieldError reports a validation failure on one field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalid) match any FieldError.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Registration is the payload accepted when a user signs up.
type Registration struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Normalize trims the identifying fields and lower-cases the email.
func (r *Registration) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate checks a normalized registration.
func (r *Registration) Validate() error {
	if r.Name == "" {
		return invalid("name", "this field is required")
	}
	if n := utf8.RuneCountInString(r.Name); n > 150 {
		return invalid("name", "must be at most 150 characters")
	}
	if r.Username == "" {
		return invalid("username", "this field is required")
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return invalid("email", "enter a valid email address")
	}
	if r.Password == "" {
		return invalid("password", "this field is required")
	}
	if r.Password != r.ConfirmPassword {
		return invalid("confirm_password", "passwords do not match")
	}
	return nil
}

// Validate checks a category before it is stored.
func (c *Category) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("name", "this field is required")
	}
	if utf8.RuneCountInString(c.Name) > 100 {
		return invalid("name", "must be at most 100 characters")
	}
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	if !colorRe.MatchString(c.Color) {
		return invalid("color", "must look like #RRGGBB")
	}
	if c.MonthlyLimit != nil && c.MonthlyLimit.IsNegative() {
		return invalid("monthly_limit", "must not be negative")
	}
	return nil
}

// Validate checks a transaction before it is stored. now is the reference
// for the future-date check.
func (t *Transaction) Validate(now time.Time) error {
	t.Description = strings.TrimSpace(t.Description)
	if t.Description == "" {
		return invalid("description", "this field is required")
	}
	if utf8.RuneCountInString(t.Description) > 200 {
		return invalid("description", "must be at most 200 characters")
	}
	if !t.Value.IsPositive() {
		return invalid("value", "must be greater than zero")
	}
	if !t.Type.Valid() {
		return invalid("transaction_type", fmt.Sprintf("%q is not a valid choice", t.Type))
	}
	d, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return invalid("date", "use the YYYY-MM-DD format")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.After(today) {
		return invalid("date", "cannot be in the future")
	}
	return nil
}
