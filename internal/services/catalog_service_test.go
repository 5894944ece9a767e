package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facepay/backend/internal/models"
)

func TestCatalogService_ListActiveProducts(t *testing.T) {
	productID := "7c9e6679-0000-4000-8000-000000000002"
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	products := []models.Product{{
		ID:        productID,
		Name:      "Empanada de pollo",
		Price:     300,
		ImageURL:  "/static/products/empanada.png",
		IsActive:  true,
		CreatedAt: created,
	}}

	t.Run("cache miss falls through to the store and fills the cache", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		redisClient, redisMock := redismock.NewClientMock()
		service := NewCatalogService(db, redisClient)

		cached, err := json.Marshal(products)
		require.NoError(t, err)

		redisMock.ExpectGet(catalogCacheKey).RedisNil()

		mock.ExpectQuery("SELECT id, name, price, image_url, is_active, created_at").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "name", "price", "image_url", "is_active", "created_at"}).
				AddRow(productID, "Empanada de pollo", 300, "/static/products/empanada.png", true, created))

		redisMock.ExpectSet(catalogCacheKey, cached, catalogCacheTTL).SetVal("OK")

		got, err := service.ListActiveProducts(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, products, got)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache hit skips the store entirely", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		redisClient, redisMock := redismock.NewClientMock()
		service := NewCatalogService(db, redisClient)

		cached, err := json.Marshal(products)
		require.NoError(t, err)

		redisMock.ExpectGet(catalogCacheKey).SetVal(string(cached))

		got, err := service.ListActiveProducts(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, products, got)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("works without redis", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := NewCatalogService(db, nil)

		mock.ExpectQuery("SELECT id, name, price, image_url, is_active, created_at").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "name", "price", "image_url", "is_active", "created_at"}))

		got, err := service.ListActiveProducts(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeated reads with no writes are identical", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := NewCatalogService(db, nil)

		for i := 0; i < 2; i++ {
			mock.ExpectQuery("SELECT id, name, price, image_url, is_active, created_at").
				WillReturnRows(sqlmock.NewRows(
					[]string{"id", "name", "price", "image_url", "is_active", "created_at"}).
					AddRow(productID, "Empanada de pollo", 300, "/static/products/empanada.png", true, created))
		}

		first, err := service.ListActiveProducts(context.Background())
		require.NoError(t, err)
		second, err := service.ListActiveProducts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestCatalogService_DeactivateProduct(t *testing.T) {
	productID := "7c9e6679-0000-4000-8000-000000000002"

	t.Run("deactivation invalidates the cache", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		redisClient, redisMock := redismock.NewClientMock()
		service := NewCatalogService(db, redisClient)

		mock.ExpectExec("UPDATE products SET is_active = FALSE").
			WithArgs(productID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		redisMock.ExpectDel(catalogCacheKey).SetVal(1)

		err = service.DeactivateProduct(context.Background(), productID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("unknown product", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := NewCatalogService(db, nil)

		mock.ExpectExec("UPDATE products SET is_active = FALSE").
			WithArgs(productID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = service.DeactivateProduct(context.Background(), productID)
		assert.ErrorIs(t, err, ErrProductUnavailable)
	})
}
