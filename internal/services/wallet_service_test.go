package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facepay/backend/internal/audit"
	"github.com/facepay/backend/internal/models"
)

func TestWalletService_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db, audit.NewLogger())

	req := CreateUserRequest{
		StudentID:      "U2021-0042",
		FullName:       "Maria Quispe",
		Email:          "maria@example.edu",
		InitialBalance: 10000,
	}

	t.Run("user and topup entry committed together", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), req.StudentID, req.FullName, req.Email).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		mock.ExpectExec("INSERT INTO wallet_ledger").
			WithArgs(sqlmock.AnyArg(), req.InitialBalance, models.LedgerReasonTopup).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		user, err := service.CreateUser(context.Background(), req)
		assert.NoError(t, err)
		assert.Equal(t, req.StudentID, user.StudentID)
		assert.NotEmpty(t, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate identity rolls back", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), req.StudentID, req.FullName, req.Email).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_student_id_key"})

		mock.ExpectRollback()

		user, err := service.CreateUser(context.Background(), req)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrDuplicateIdentity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ledger insert failure leaves no user behind", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), req.StudentID, req.FullName, req.Email).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		mock.ExpectExec("INSERT INTO wallet_ledger").
			WillReturnError(assert.AnError)

		mock.ExpectRollback()

		user, err := service.CreateUser(context.Background(), req)
		assert.Nil(t, user)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletService_GetBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db, audit.NewLogger())
	userID := "3f1d4b9a-0000-4000-8000-000000000001"

	t.Run("balance is the sum of ledger entries", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(4000))

		balance, err := service.GetBalance(context.Background(), userID)
		assert.NoError(t, err)
		assert.Equal(t, int64(4000), balance)
	})

	t.Run("user without entries has balance zero", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(0))

		balance, err := service.GetBalance(context.Background(), userID)
		assert.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))

		_, err := service.GetBalance(context.Background(), userID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestWalletService_GetTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db, audit.NewLogger())
	userID := "3f1d4b9a-0000-4000-8000-000000000001"
	orderID := "7c9e6679-0000-4000-8000-000000000002"

	t.Run("entries joined to originating orders, newest first", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT l.amount, l.reason, l.created_at").
			WithArgs(userID, 50).
			WillReturnRows(sqlmock.NewRows(
				[]string{"amount", "reason", "created_at", "id", "status", "total"}).
				AddRow(-6000, models.LedgerReasonOrder, now, orderID, models.OrderStatusPaid, 6000).
				AddRow(10000, models.LedgerReasonTopup, now.Add(-time.Hour), nil, nil, nil))

		records, err := service.GetTransactions(context.Background(), userID, 50)
		assert.NoError(t, err)
		assert.Len(t, records, 2)

		assert.Equal(t, int64(-6000), records[0].Amount)
		assert.True(t, records[0].OrderID.Valid)
		assert.Equal(t, orderID, records[0].OrderID.String)

		assert.Equal(t, int64(10000), records[1].Amount)
		assert.False(t, records[1].OrderID.Valid)

		fields := records[1].MarshalFields()
		assert.NotContains(t, fields, "order_id")
	})
}
