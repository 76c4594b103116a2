package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stitchwork/backend/internal/domain/ledger"
	"github.com/stitchwork/backend/internal/domain/shared"
)

func TestGormSubjectRepository_FindByCode(t *testing.T) {
	t.Run("finds subject by code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSubjectRepository(gormDB)

		subjectID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "type", "code", "unit", "initial_quantity", "reserved", "min_quantity"}).
			AddRow(subjectID, "FABRIC_ROLL", "ROLL-COT-0001", "m", "100.00", false, "0.00")

		mock.ExpectQuery(`SELECT \* FROM "ledger_subjects" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("ROLL-COT-0001", 1).
			WillReturnRows(rows)

		subject, err := repo.FindByCode(context.Background(), "ROLL-COT-0001")

		require.NoError(t, err)
		assert.Equal(t, subjectID, subject.ID)
		assert.Equal(t, ledger.SubjectTypeFabricRoll, subject.Type)
		assert.Equal(t, "m", subject.Unit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for unknown code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSubjectRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "ledger_subjects" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("NOPE", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		subject, err := repo.FindByCode(context.Background(), "NOPE")

		assert.Nil(t, subject)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormEventRepository_FindBySubject(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormEventRepository(gormDB)

	subjectID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "subject_id", "type", "quantity", "sequence", "occurred_at", "actor"}).
		AddRow(uuid.New(), subjectID, "RECEIVE", "100.00", 1, now.Add(-time.Hour), "warehouse").
		AddRow(uuid.New(), subjectID, "CONSUME", "30.00", 2, now, "cutting-line-1")

	mock.ExpectQuery(`SELECT \* FROM "ledger_events" WHERE subject_id = \$1 ORDER BY occurred_at ASC, sequence ASC`).
		WithArgs(subjectID).
		WillReturnRows(rows)

	events, err := repo.FindBySubject(context.Background(), subjectID)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.EventTypeReceive, events[0].Type)
	assert.Equal(t, int64(2), events[1].Sequence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormEventRepository_NextSequence(t *testing.T) {
	t.Run("returns max plus one", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		subjectID := uuid.New()
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(sequence\), 0\) FROM "ledger_events" WHERE subject_id = \$1`).
			WithArgs(subjectID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

		next, err := repo.NextSequence(context.Background(), subjectID)

		require.NoError(t, err)
		assert.Equal(t, int64(8), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty log starts at one", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		subjectID := uuid.New()
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(sequence\), 0\) FROM "ledger_events" WHERE subject_id = \$1`).
			WithArgs(subjectID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

		next, err := repo.NextSequence(context.Background(), subjectID)

		require.NoError(t, err)
		assert.Equal(t, int64(1), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
