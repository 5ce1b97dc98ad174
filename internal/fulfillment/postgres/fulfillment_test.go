package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/pkg/database"
)

func sampleGrant() *domain.DeliveryGrant {
	return &domain.DeliveryGrant{
		ExternalRef: "order-1700000000000",
		Email:       "alice@example.com",
		FileID:      "f-1",
		CatalogID:   7,
		Granted:     true,
		ViewerLink:  "https://drive.google.com/file/d/f-1/view",
	}
}

var grantColumns = []string{
	"id", "external_ref", "email", "file_id", "catalog_id", "granted", "viewer_link", "created_at",
}

// ─── MarkEventProcessed ──────────────────────────────────────────────────────

func TestFulfillmentRepository_MarkEventProcessed_FirstDelivery(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)

	mock.ExpectExec("INSERT INTO processed_payment_events").
		WithArgs("evt-1", "order-1700000000000").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	first, err := repo.MarkEventProcessed(context.Background(), "evt-1", "order-1700000000000")
	require.NoError(t, err)
	assert.True(t, first)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFulfillmentRepository_MarkEventProcessed_Duplicate(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)

	mock.ExpectExec("INSERT INTO processed_payment_events").
		WithArgs("evt-1", "order-1700000000000").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	first, err := repo.MarkEventProcessed(context.Background(), "evt-1", "order-1700000000000")
	require.NoError(t, err)
	assert.False(t, first)
}

func TestFulfillmentRepository_MarkEventProcessed_Error(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)

	mock.ExpectExec("INSERT INTO processed_payment_events").
		WithArgs("evt-1", "order-1700000000000").
		WillReturnError(errors.New("connection refused"))

	_, err = repo.MarkEventProcessed(context.Background(), "evt-1", "order-1700000000000")
	assert.Error(t, err)
}

// ─── ReleaseEvent ────────────────────────────────────────────────────────────

func TestFulfillmentRepository_ReleaseEvent(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)

	mock.ExpectExec("DELETE FROM processed_payment_events").
		WithArgs("evt-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.ReleaseEvent(context.Background(), "evt-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFulfillmentRepository_ReleaseEvent_Error(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)

	mock.ExpectExec("DELETE FROM processed_payment_events").
		WithArgs("evt-1").
		WillReturnError(errors.New("connection refused"))

	assert.Error(t, repo.ReleaseEvent(context.Background(), "evt-1"))
}

// ─── RecordGrant ─────────────────────────────────────────────────────────────

func TestFulfillmentRepository_RecordGrant(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)
	g := sampleGrant()
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO delivery_grants").
		WithArgs(g.ExternalRef, g.Email, g.FileID, g.CatalogID, g.Granted, g.ViewerLink).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), created))

	err = repo.RecordGrant(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.ID)
	assert.Equal(t, created, g.CreatedAt)
}

func TestFulfillmentRepository_RecordGrant_Error(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)

	mock.ExpectQuery("INSERT INTO delivery_grants").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("relation does not exist"))

	err = repo.RecordGrant(context.Background(), sampleGrant())
	assert.Error(t, err)
}

// ─── GrantsByExternalRef ─────────────────────────────────────────────────────

func TestFulfillmentRepository_GrantsByExternalRef(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM delivery_grants").
		WithArgs("order-1700000000000").
		WillReturnRows(pgxmock.NewRows(grantColumns).
			AddRow(int64(2), "order-1700000000000", "alice@example.com", "f-2", 8, false, "https://drive.google.com/file/d/f-2/view", created).
			AddRow(int64(1), "order-1700000000000", "alice@example.com", "f-1", 7, true, "https://drive.google.com/file/d/f-1/view", created))

	grants, err := repo.GrantsByExternalRef(context.Background(), "order-1700000000000")
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, "f-2", grants[0].FileID)
	assert.False(t, grants[0].Granted)
	assert.Equal(t, "f-1", grants[1].FileID)
	assert.True(t, grants[1].Granted)
}

func TestFulfillmentRepository_GrantsByExternalRef_Empty(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFulfillmentRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM delivery_grants").
		WithArgs("order-unknown").
		WillReturnRows(pgxmock.NewRows(grantColumns))

	grants, err := repo.GrantsByExternalRef(context.Background(), "order-unknown")
	require.NoError(t, err)
	assert.Empty(t, grants)
}
