package model

import (
	"construction-course-checkout/internal/domain"
	"time"
)

// Course is a one-shot purchasable subject.
type Course struct {
	ID         string
	Title      string
	PriceCents int64
	Currency   string
	Active     bool
	CreatedAt  time.Time
}

// SubscriptionPlan is a recurring purchasable subject.
type SubscriptionPlan struct {
	ID             string
	Name           string
	PriceCents     int64
	Currency       string
	IntervalMonths int
	Active         bool
	CreatedAt      time.Time
}

// Subject is the uniform pricing view the checkout core works with,
// regardless of whether the underlying record is a course or a plan.
type Subject struct {
	Type           SubjectType
	ID             string
	Title          string
	PriceCents     int64
	Currency       string
	IntervalMonths int // zero for courses
}

// NewCourse validates and constructs a course.
func NewCourse(id, title string, priceCents int64, currency string) (*Course, error) {
	if id == "" || title == "" || priceCents < 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Course{
		ID:         id,
		Title:      title,
		PriceCents: priceCents,
		Currency:   currency,
		Active:     true,
		CreatedAt:  time.Now(),
	}, nil
}

// NewSubscriptionPlan validates and constructs a plan.
func NewSubscriptionPlan(id, name string, priceCents int64, currency string, intervalMonths int) (*SubscriptionPlan, error) {
	if id == "" || name == "" || priceCents < 0 || currency == "" || intervalMonths <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionPlan{
		ID:             id,
		Name:           name,
		PriceCents:     priceCents,
		Currency:       currency,
		IntervalMonths: intervalMonths,
		Active:         true,
		CreatedAt:      time.Now(),
	}, nil
}
