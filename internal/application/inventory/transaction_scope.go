package inventory

import (
	"context"

	"github.com/stitchwork/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. The sequence read and the event insert in particular must
// share one transaction, otherwise two writers can claim the same sequence.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within
// a transaction. Both repositories share the same underlying transaction.
type TransactionalRepositories interface {
	// SubjectRepo returns the subject repository scoped to the current transaction
	SubjectRepo() ledger.SubjectRepository
	// EventRepo returns the event repository scoped to the current transaction
	EventRepo() ledger.EventRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	subjectRepo ledger.SubjectRepository
	eventRepo   ledger.EventRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(subjectRepo ledger.SubjectRepository, eventRepo ledger.EventRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		subjectRepo: subjectRepo,
		eventRepo:   eventRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SubjectRepo returns the subject repository.
func (s *NoOpTransactionScope) SubjectRepo() ledger.SubjectRepository {
	return s.subjectRepo
}

// EventRepo returns the event repository.
func (s *NoOpTransactionScope) EventRepo() ledger.EventRepository {
	return s.eventRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
