package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockPaymentRecordRepository creates a GormPaymentRecordRepository with a mocked SQL connection
func newMockPaymentRecordRepository(t *testing.T) (*GormPaymentRecordRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPaymentRecordRepository(gormDB), mock, mockDB
}

func TestGormPaymentRecordRepository_Create(t *testing.T) {
	t.Run("inserts a payment record", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRecordRepository(t)
		defer mockDB.Close()

		amount, err := valueobject.NewMoneyFromString("400.00")
		require.NoError(t, err)
		record, err := billing.NewPaymentRecord(uuid.New(), uuid.New(), uuid.New(), uuid.New(), amount, time.Now())
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "payment_records"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Create(context.Background(), record)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRecordRepository(t)
		defer mockDB.Close()

		amount, err := valueobject.NewMoneyFromString("400.00")
		require.NoError(t, err)
		record, err := billing.NewAdvanceRecord(uuid.New(), uuid.New(), uuid.New(), amount, time.Now())
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "payment_records"`).
			WillReturnError(sql.ErrConnDone)

		err = repo.Create(context.Background(), record)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRecordRepository_SumCompletedByInvoice(t *testing.T) {
	t.Run("returns the completed total", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRecordRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payment_records" WHERE \(invoice_id = \$1 AND status = \$2\) AND "payment_records"\."deleted_at" IS NULL`).
			WithArgs(invoiceID, "COMPLETED").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(decimal.RequireFromString("690.00")))

		total, err := repo.SumCompletedByInvoice(context.Background(), invoiceID)

		assert.NoError(t, err)
		assert.Equal(t, "690", total.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero when no records exist", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRecordRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payment_records"`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(decimal.Zero))

		total, err := repo.SumCompletedByInvoice(context.Background(), uuid.New())

		assert.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRecordRepository_SumAdvanceByVehicle(t *testing.T) {
	t.Run("sums only advance records of the vehicle", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRecordRepository(t)
		defer mockDB.Close()

		vehicleID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payment_records" WHERE \(vehicle_id = \$1 AND invoice_id IS NULL AND status = \$2\) AND "payment_records"\."deleted_at" IS NULL`).
			WithArgs(vehicleID, "COMPLETED").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(decimal.RequireFromString("150.00")))

		total, err := repo.SumAdvanceByVehicle(context.Background(), vehicleID)

		assert.NoError(t, err)
		assert.Equal(t, "150", total.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRecordRepository_CountAdvanceByVehicle(t *testing.T) {
	t.Run("counts advance records", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRecordRepository(t)
		defer mockDB.Close()

		vehicleID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "payment_records" WHERE \(vehicle_id = \$1 AND invoice_id IS NULL AND status = \$2\) AND "payment_records"\."deleted_at" IS NULL`).
			WithArgs(vehicleID, "COMPLETED").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		count, err := repo.CountAdvanceByVehicle(context.Background(), vehicleID)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRecordRepository_FindAdvancesByVehicle(t *testing.T) {
	t.Run("paginates newest first", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRecordRepository(t)
		defer mockDB.Close()

		vehicleID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "payment_records"`).
			WithArgs(vehicleID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := sqlmock.NewRows([]string{
			"id", "created_at", "updated_at",
			"invoice_id", "vehicle_id", "payment_method_id", "amount", "status",
			"transaction_ref", "notes", "branch_id", "processed_by", "payment_date", "deleted_at",
		}).AddRow(
			uuid.New(), now, now,
			nil, vehicleID, uuid.New(), decimal.RequireFromString("100.00"), "COMPLETED",
			"", "", uuid.New(), nil, now, nil,
		)

		mock.ExpectQuery(`SELECT \* FROM "payment_records" WHERE \(vehicle_id = \$1 AND invoice_id IS NULL\) AND "payment_records"\."deleted_at" IS NULL ORDER BY payment_date DESC LIMIT .*`).
			WillReturnRows(rows)

		records, total, err := repo.FindAdvancesByVehicle(context.Background(), vehicleID, shared.DefaultFilter())

		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, records, 1)
		assert.True(t, records[0].IsAdvance())
		assert.Equal(t, vehicleID, records[0].VehicleID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
