package ratelimit

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryLogin         Category = "login"
	CategorySignup        Category = "signup"
	CategorySendMessage   Category = "sendMessage"
	CategoryCheckout      Category = "checkout"
	CategoryBillingPortal Category = "billingPortal"
	CategoryDefault       Category = "default"
)

// Policy is a fixed-window budget: at most MaxRequests per Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

type Catalog map[Category]Policy

// DefaultCatalog returns the budgets enforced at the edge. Clients and the
// e2e suite depend on these literal values.
func DefaultCatalog() Catalog {
	return Catalog{
		CategoryLogin:         {MaxRequests: 5, Window: 15 * time.Minute},
		CategorySignup:        {MaxRequests: 3, Window: 60 * time.Minute},
		CategorySendMessage:   {MaxRequests: 30, Window: 60 * time.Second},
		CategoryCheckout:      {MaxRequests: 10, Window: 60 * time.Second},
		CategoryBillingPortal: {MaxRequests: 5, Window: 60 * time.Second},
		CategoryDefault:       {MaxRequests: 100, Window: 60 * time.Second},
	}
}

// For resolves a category to its policy, falling back to the default bucket
// for unknown categories.
func (c Catalog) For(category Category) Policy {
	if p, ok := c[category]; ok {
		return p
	}
	return c[CategoryDefault]
}

// CategoryForAPIPath maps an API path to its rate-limit bucket by substring,
// mirroring how the checkout and billing-portal endpoints are mounted.
func CategoryForAPIPath(path string) Category {
	switch {
	case strings.Contains(path, "checkout"):
		return CategoryCheckout
	case strings.Contains(path, "billing-portal"):
		return CategoryBillingPortal
	case strings.Contains(path, "messages"):
		return CategorySendMessage
	default:
		return CategoryDefault
	}
}
