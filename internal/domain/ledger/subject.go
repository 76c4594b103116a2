package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// SubjectType distinguishes what kind of thing the ledger tracks
type SubjectType string

const (
	// SubjectTypeFabricRoll tracks remaining meters on a physical fabric roll
	SubjectTypeFabricRoll SubjectType = "FABRIC_ROLL"
	// SubjectTypeSKUStock tracks a stock-keeping unit at one warehouse
	SubjectTypeSKUStock SubjectType = "SKU_STOCK"
)

// IsValid returns true if the subject type is known
func (t SubjectType) IsValid() bool {
	switch t {
	case SubjectTypeFabricRoll, SubjectTypeSKUStock:
		return true
	}
	return false
}

// Subject is the thing whose quantity the ledger tracks. Its remaining
// quantity is never stored here: it is always derived by replaying the
// subject's events on top of InitialQuantity.
type Subject struct {
	shared.BaseEntity
	Type            SubjectType     `gorm:"type:varchar(20);not null;index"`
	Code            string          `gorm:"type:varchar(100);not null;uniqueIndex"` // roll number or SKU@warehouse
	Unit            string          `gorm:"type:varchar(20);not null"`              // m, pcs, kg
	InitialQuantity decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Reserved        bool            `gorm:"not null;default:false"` // roll held for a cut plan
	MinQuantity     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (Subject) TableName() string {
	return "ledger_subjects"
}

// NewSubject creates a new ledger subject
func NewSubject(subjectType SubjectType, code, unit string, initialQuantity decimal.Decimal) (*Subject, error) {
	if !subjectType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SUBJECT_TYPE", "Unknown subject type")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Subject code cannot be empty")
	}
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Subject unit cannot be empty")
	}
	if initialQuantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial quantity cannot be negative")
	}

	return &Subject{
		BaseEntity:      shared.NewBaseEntity(),
		Type:            subjectType,
		Code:            code,
		Unit:            unit,
		InitialQuantity: initialQuantity,
	}, nil
}

// Flags returns the per-subject flags consumed by status derivation
func (s *Subject) Flags() SubjectFlags {
	return SubjectFlags{
		Reserved:    s.Reserved,
		MinQuantity: s.MinQuantity,
	}
}

// SetReserved marks or clears the reserved flag (roll held for a cut plan)
func (s *Subject) SetReserved(reserved bool) {
	s.Reserved = reserved
}

// SetMinQuantity sets the low-stock threshold for SKU subjects
func (s *Subject) SetMinQuantity(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum quantity cannot be negative")
	}
	s.MinQuantity = quantity
	return nil
}
