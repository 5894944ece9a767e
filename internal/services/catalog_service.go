package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/facepay/backend/internal/models"
)

const (
	catalogCacheKey = "catalog:active"
	catalogCacheTTL = time.Minute
)

// CatalogService serves the purchasable product list. Reads go through a
// short-lived Redis cache when Redis is available; writes invalidate it.
type CatalogService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
}

func NewCatalogService(db *sql.DB, redisClient *redis.Client) *CatalogService {
	return &CatalogService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// ListActiveProducts returns active products ordered by name.
func (s *CatalogService) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	if s.redis != nil {
		if data, err := s.redis.Get(ctx, catalogCacheKey).Bytes(); err == nil {
			var cached []models.Product
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, image_url, is_active, created_at
		FROM products
		WHERE is_active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.ImageURL, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(products); err == nil {
			if err := s.redis.Set(ctx, catalogCacheKey, data, catalogCacheTTL).Err(); err != nil {
				log.Printf("[CATALOG] cache write failed: %v", err)
			}
		}
	}
	return products, nil
}

// CreateProductRequest represents the catalog maintenance payload
type CreateProductRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Price    int64  `json:"price" validate:"required,gt=0"` // minor units
	ImageURL string `json:"image_url" validate:"omitempty,max=500"`
}

// CreateProduct inserts an active product and drops the cache.
func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		IsActive: true,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (id, name, price, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		product.ID, product.Name, product.Price, product.ImageURL).Scan(&product.CreatedAt)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return product, nil
}

// DeactivateProduct takes a product off the shelf. Existing order items
// keep their captured prices; the product simply stops being purchasable.
func (s *CatalogService) DeactivateProduct(ctx context.Context, productID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE products SET is_active = FALSE WHERE id = $1`, productID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductUnavailable
	}

	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, catalogCacheKey).Err(); err != nil {
		log.Printf("[CATALOG] cache invalidation failed: %v", err)
	}
}

// ListProducts handles the catalog endpoint
// @Summary List purchasable products
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Product
// @Router /products [get]
func (s *CatalogService) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.ListActiveProducts(r.Context())
	if err != nil {
		SendServiceError(w, "CATALOG", err)
		return
	}
	SendJSON(w, products)
}

// AddProduct handles catalog maintenance
// @Summary Add a product to the catalog
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProductRequest true "Product"
// @Success 200 {object} models.Product
// @Failure 400 {object} ErrorResponse
// @Router /products [post]
func (s *CatalogService) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	product, err := s.CreateProduct(r.Context(), req)
	if err != nil {
		SendServiceError(w, "CATALOG", err)
		return
	}
	SendJSON(w, product)
}

// RemoveProduct handles product deactivation
// @Summary Deactivate a product
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} object{ok=bool}
// @Failure 400 {object} ErrorResponse
// @Router /products/{id} [delete]
func (s *CatalogService) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.DeactivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		SendServiceError(w, "CATALOG", err)
		return
	}
	SendJSON(w, map[string]any{"ok": true})
}
