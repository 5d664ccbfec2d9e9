package giftcard_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/giftcard-service/internal/giftcard"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	// Integration tests run only against a prepared database; set
	// DB_HOST_TEST (plus the usual DB_* _TEST vars) to enable them.
	dbHost := os.Getenv("DB_HOST_TEST")
	if dbHost == "" {
		os.Exit(m.Run())
	}

	dbPort := envOr("DB_PORT_TEST", "5432")
	dbUser := envOr("DB_USER_TEST", "postgres")
	dbPassword := envOr("DB_PASSWORD_TEST", "123456")
	dbName := envOr("DB_NAME_TEST", "giftcard_db")
	dbSSLMode := envOr("DB_SSLMODE_TEST", "disable")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=giftcard_service",
		dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	var err error
	testDB, err = pgxpool.New(context.Background(), connStr)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	exitCode := m.Run()

	testDB.Close()

	os.Exit(exitCode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupRepo(t *testing.T) giftcard.Repository {
	if testDB == nil {
		t.Skip("DB_HOST_TEST not set, skipping repository integration tests")
	}

	ctx := context.Background()
	truncate := func() {
		_, err := testDB.Exec(ctx, "TRUNCATE TABLE transactions, order_items, orders")
		if err != nil {
			t.Fatalf("Failed to truncate tables: %v", err)
		}
	}
	truncate()
	t.Cleanup(truncate)

	return giftcard.NewRepository(testDB)
}

func insertOrder(t *testing.T, status giftcard.OrderStatus) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := testDB.Exec(context.Background(), `
		INSERT INTO orders (id, status, amount, currency, product_type, customer_name, customer_email)
		VALUES ($1, $2, 2500, 'USD', 'giftcard', 'Jamie Buyer', 'jamie@example.com')
	`, id, string(status))
	require.NoError(t, err)
	return id
}

func TestRepository_GetOrderByID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	orderID := insertOrder(t, giftcard.StatusPending)

	order, err := repo.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, giftcard.StatusPending, order.Status)
	assert.Equal(t, int64(2500), order.Amount)
	assert.NotNil(t, order.Metadata)

	_, err = repo.GetOrderByID(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, giftcard.ErrOrderNotFound)
}

func TestRepository_UpdateOrderStatusAndMetadata(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	orderID := insertOrder(t, giftcard.StatusPending)

	require.NoError(t, repo.UpdateOrderStatus(ctx, orderID, giftcard.StatusApproved))
	require.NoError(t, repo.UpdateOrderMetadata(ctx, orderID, map[string]string{"redemption_code": "ABC"}))
	require.NoError(t, repo.SetOrderEmailSent(ctx, orderID, true))

	order, err := repo.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, giftcard.StatusApproved, order.Status)
	assert.Equal(t, "ABC", order.Metadata["redemption_code"])
	assert.True(t, order.EmailSent)

	err = repo.UpdateOrderStatus(ctx, uuid.Must(uuid.NewV4()), giftcard.StatusApproved)
	assert.ErrorIs(t, err, giftcard.ErrOrderNotFound)
}

func TestRepository_Transactions(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	orderID := insertOrder(t, giftcard.StatusApproved)

	_, err := repo.LatestTransactionByOrder(ctx, orderID)
	assert.ErrorIs(t, err, giftcard.ErrTransactionNotFound)

	first := &giftcard.Transaction{
		OrderID:        orderID,
		ExternalID:     "tx-1",
		Status:         giftcard.TxStatusProcessing,
		Amount:         2500,
		RecipientEmail: "jamie@example.com",
		Metadata:       map[string]string{"supplier_product_id": "p-1"},
	}
	require.NoError(t, repo.CreateTransaction(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	second := &giftcard.Transaction{
		OrderID:  orderID,
		Status:   giftcard.TxStatusProcessing,
		Amount:   2500,
		Metadata: map[string]string{},
	}
	require.NoError(t, repo.CreateTransaction(ctx, second))

	// The most recently created transaction is the authoritative one.
	latest, err := repo.LatestTransactionByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	latest.Status = giftcard.TxStatusCompleted
	latest.ExternalID = "tx-2"
	latest.Metadata = map[string]string{"redemption_code": "CODE-9"}
	require.NoError(t, repo.UpdateTransaction(ctx, latest))

	reloaded, err := repo.LatestTransactionByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, giftcard.TxStatusCompleted, reloaded.Status)
	assert.Equal(t, "CODE-9", reloaded.Metadata["redemption_code"])
}
