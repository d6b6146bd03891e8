package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/varejo/backend/internal/domain/shared"
)

// Customer is the buyer read model the ledger and dunning engine consume.
// Customer lifecycle (registration, updates) is owned elsewhere; this
// context only needs identity, ownership and contact info.
type Customer struct {
	shared.BaseEntity
	CompanyID uuid.UUID `json:"company_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	IsActive  bool      `json:"is_active"`
}

// HasPhone reports whether the customer carries any phone number at all.
// Whether the number is usable is the messaging provider's call.
func (c *Customer) HasPhone() bool {
	return c.Phone != ""
}

// CustomerRepository is the tenant-scoped ownership lookup collaborator
type CustomerRepository interface {
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Customer, error)
}
