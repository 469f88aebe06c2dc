// Package client provides the read-only Client catalog. Clients are the
// parties quotations and invoices are addressed to.
package client

import (
	"context"

	"invoicepro/internal/core/entity"
	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
)

// EntityName is used in errors.
const EntityName = "client"

// Client is a customer of the account.
type Client struct {
	entity.BaseDocument

	Name        string  `db:"name" json:"name"`
	Email       *string `db:"email" json:"email,omitempty"`
	Phone       *string `db:"phone" json:"phone,omitempty"`
	CompanyName *string `db:"company_name" json:"companyName,omitempty"`
	Address     *string `db:"address" json:"address,omitempty"`
	TaxNumber   *string `db:"tax_number" json:"taxNumber,omitempty"`
}

// Repository reads clients. Clients are maintained outside this service.
type Repository interface {
	GetByID(ctx context.Context, accountID, clientID id.ID) (*Client, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Client], error)
}

// Service provides client lookups.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, accountID, clientID id.ID) (*Client, error) {
	return s.repo.GetByID(ctx, accountID, clientID)
}

// List supports Search over name, company name and email.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Client], error) {
	return s.repo.List(ctx, filter)
}

// Exists reports whether clientID belongs to the account.
func (s *Service) Exists(ctx context.Context, accountID, clientID id.ID) error {
	_, err := s.repo.GetByID(ctx, accountID, clientID)
	return err
}
