package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appinventory "github.com/stitchwork/backend/internal/application/inventory"
	"github.com/stitchwork/backend/internal/domain/ledger"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// GormSubjectRepository implements ledger.SubjectRepository using GORM
type GormSubjectRepository struct {
	db *gorm.DB
}

// NewGormSubjectRepository creates a new GormSubjectRepository
func NewGormSubjectRepository(db *gorm.DB) *GormSubjectRepository {
	return &GormSubjectRepository{db: db}
}

// FindByID finds a subject by its ID
func (r *GormSubjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Subject, error) {
	var subject ledger.Subject
	if err := r.db.WithContext(ctx).First(&subject, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &subject, nil
}

// FindByCode finds a subject by its unique code
func (r *GormSubjectRepository) FindByCode(ctx context.Context, code string) (*ledger.Subject, error) {
	var subject ledger.Subject
	if err := r.db.WithContext(ctx).First(&subject, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &subject, nil
}

// Create inserts a new subject
func (r *GormSubjectRepository) Create(ctx context.Context, subject *ledger.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

// Save updates a subject
func (r *GormSubjectRepository) Save(ctx context.Context, subject *ledger.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

// GormEventRepository implements ledger.EventRepository using GORM
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Append inserts one event. Events are never updated or deleted. Two writers
// claiming the same sequence number hit the unique (subject_id, sequence)
// index; the loser gets a conflict error so the service can replay the whole
// read-check-write cycle.
func (r *GormEventRepository) Append(ctx context.Context, event *ledger.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// isUniqueViolation recognizes unique-constraint failures from the drivers we
// run against (postgres in production, sqlite in tests)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// FindBySubject returns a subject's events ordered by occurrence then sequence
func (r *GormEventRepository) FindBySubject(ctx context.Context, subjectID uuid.UUID) ([]ledger.Event, error) {
	var events []ledger.Event
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("occurred_at ASC, sequence ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// NextSequence returns the next per-subject sequence number. The caller must
// run this inside the same transaction as the Append so concurrent writers
// cannot claim the same number.
func (r *GormEventRepository) NextSequence(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	var current int64
	err := r.db.WithContext(ctx).
		Model(&ledger.Event{}).
		Where("subject_id = ?", subjectID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

// GormLedgerTransactionScope implements the inventory transaction scope on a
// real database transaction
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs fn inside a database transaction, handing it repositories
// bound to that transaction
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerTxRepos{tx: tx})
	})
}

type gormLedgerTxRepos struct {
	tx *gorm.DB
}

func (r *gormLedgerTxRepos) SubjectRepo() ledger.SubjectRepository {
	return NewGormSubjectRepository(r.tx)
}

func (r *gormLedgerTxRepos) EventRepo() ledger.EventRepository {
	return NewGormEventRepository(r.tx)
}

var _ appinventory.TransactionScope = (*GormLedgerTransactionScope)(nil)
