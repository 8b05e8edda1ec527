// Package model defines the persisted records the contract pipeline reads.
package model

import (
	"time"

	"github.com/locagest/contratos/pkg/workflow"
)

// Person is a tenant or an owner. Document holds digits only; masking is a
// rendering concern.
type Person struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Document      string `json:"document"`
	Nationality   string `json:"nationality"`
	MaritalStatus string `json:"marital_status"`
	Occupation    string `json:"occupation"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

type Agency struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	CNPJ    string `json:"cnpj"`
	CRECI   string `json:"creci"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type Property struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	AgencyID     string `json:"agency_id"`
	Kind         string `json:"kind"` // RES, COM
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	CEP          string `json:"cep"`
	Registration string `json:"registration"`
}

type Template struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Content          string    `json:"content"`
	AllowedUserTypes []string  `json:"allowed_user_types"`
	CreatedAt        time.Time `json:"created_at"`
}

// Contract is the central record. ContentSnapshot is empty until the contract
// is prepared for signing; once set, all display and export read from it and
// never from live related entities again.
type Contract struct {
	ID                string          `json:"id"`
	Token             string          `json:"token"`
	TemplateID        string          `json:"template_id"`
	PropertyID        string          `json:"property_id"`
	TenantID          string          `json:"tenant_id"`
	AgencyID          string          `json:"agency_id"`
	Status            workflow.Status `json:"status"`
	RentCents         int64           `json:"rent_cents"`
	DepositCents      int64           `json:"deposit_cents"`
	DueDay            int             `json:"due_day"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	ReadjustmentIndex string          `json:"readjustment_index"`
	GuaranteeType     string          `json:"guarantee_type"`
	PenaltyClause     string          `json:"penalty_clause"`
	CRECIOverride     string          `json:"creci_override"`
	ContentSnapshot   string          `json:"content_snapshot,omitempty"`
	SnapshotFrozenAt  *time.Time      `json:"snapshot_frozen_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// HasSnapshot reports whether the composed document is frozen.
func (c *Contract) HasSnapshot() bool { return c.ContentSnapshot != "" }
