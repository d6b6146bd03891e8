package identity

import (
	"context"

	"github.com/varejo/backend/internal/domain/shared"
)

// Company is a tenant of the platform. The dunning engine only processes
// companies that are active and have automated messaging both enabled by
// the company and allowed by the platform.
type Company struct {
	shared.BaseEntity
	Name               string `json:"name"`
	Document           string `json:"document,omitempty"`
	IsActive           bool   `json:"is_active"`
	AutoMessageEnabled bool   `json:"auto_message_enabled"`
	AutoMessageAllowed bool   `json:"auto_message_allowed"`
}

// CanAutoMessage reports whether the dunning engine may process this company
func (c *Company) CanAutoMessage() bool {
	return c.IsActive && c.AutoMessageEnabled && c.AutoMessageAllowed
}

// CompanyRepository enumerates tenants for the dunning engine
type CompanyRepository interface {
	FindActiveWithAutoMessaging(ctx context.Context) ([]Company, error)
}
