package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentwerk/workshop-planner/internal/models"
)

func TestChoiceRepositoryListAllKeepsImportOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChoiceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_ref", "first_name", "last_name", "choice1", "choice2", "choice3", "choice4", "choice5", "choice6", "created_at"}).
		AddRow(int64(1), "9a", "Ada", "Lovelace", "1", "2", "", "", "", "", time.Now()).
		AddRow(int64(2), "9a", "Alan", "Turing", "2", "1", "", "", "", "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM choices ORDER BY id ASC")).
		WillReturnRows(rows)

	choices, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "Ada", choices[0].FirstName)
	assert.Equal(t, "Alan", choices[1].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChoiceRepositoryCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChoiceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM choices")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChoiceRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChoiceRepository(db)

	mock.ExpectQuery("INSERT INTO choices").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	choice := models.Choice{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1"}
	require.NoError(t, repo.Create(context.Background(), &choice))
	assert.Equal(t, int64(7), choice.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChoiceRepositoryBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO choices").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO choices").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.BulkCreate(context.Background(), []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace"},
		{ClassRef: "9a", FirstName: "Alan", LastName: "Turing"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
