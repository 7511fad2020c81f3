package service

import (
	"context"
	"fmt"
	"strings"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/storage"
	"go-storefront/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImageUploader presigns product image uploads. *storage.ImageStore
// implements it.
type ImageUploader interface {
	PresignProductImage(ctx context.Context, productID uuid.UUID, filename, contentType string) (*storage.UploadURL, error)
}

type ProductInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"is_active"`
	CategoryID  *uuid.UUID      `json:"category_id"`
}

type CategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CatalogService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CreateProduct(ctx context.Context, in ProductInput, actor string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput, actor string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor string) error
	ImageUploadURL(ctx context.Context, productID uuid.UUID, filename, contentType string) (*storage.UploadURL, error)

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, in CategoryInput, actor string) (*model.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput, actor string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID, actor string) error
}

type catalogService struct {
	store    repository.Store
	ledger   InventoryLedger
	uploader ImageUploader
	log      *zap.Logger
}

// NewCatalogService wires admin catalog management. uploader may be nil.
func NewCatalogService(store repository.Store, ledger InventoryLedger, uploader ImageUploader, log *zap.Logger) CatalogService {
	return &catalogService{store: store, ledger: ledger, uploader: uploader, log: log}
}

func (s *catalogService) validateProduct(ctx context.Context, tx repository.Store, in *ProductInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if msg := validator.FirstError(in); msg != "" {
		return invalidInput(msg)
	}
	if in.Price.IsNegative() {
		return invalidInput("price must not be negative")
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return invalidInput("price must have at most two decimal places")
	}
	if in.CategoryID != nil {
		if _, err := tx.Categories().FindByID(ctx, *in.CategoryID); err != nil {
			if repository.IsNotFound(err) {
				return ErrCategoryNotFound
			}
			return err
		}
	}
	return nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	return s.store.Products().FindAll(ctx, filter)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput, actor string) (*model.Product, error) {
	var product *model.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := s.validateProduct(ctx, tx, &in); err != nil {
			return err
		}

		active := in.Stock > 0
		if in.IsActive != nil {
			active = *in.IsActive
		}
		product = &model.Product{
			Title:       in.Title,
			Description: in.Description,
			Price:       in.Price,
			ImageURL:    in.ImageURL,
			Stock:       in.Stock,
			IsActive:    active,
			CategoryID:  in.CategoryID,
		}
		product.CreatedBy = actor
		product.UpdatedBy = actor
		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}
		if in.Stock > 0 {
			return tx.Movements().Record(ctx, &model.StockMovement{
				ProductID:  product.ID,
				Type:       model.MovementAdjust,
				Quantity:   in.Stock,
				StockAfter: in.Stock,
				Reference:  "initial",
				CreatedBy:  actor,
			})
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.Info("product created", zap.String("product_id", product.ID.String()), zap.String("actor", actor))
	s.ledger.Announce("product_created", product)
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput, actor string) (*model.Product, error) {
	var product *model.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := s.validateProduct(ctx, tx, &in); err != nil {
			return err
		}

		// Lock so the stock delta is measured against what reservations see.
		existing, err := tx.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}
		oldStock := existing.Stock

		existing.Title = in.Title
		existing.Description = in.Description
		existing.Price = in.Price
		existing.ImageURL = in.ImageURL
		existing.Stock = in.Stock
		existing.CategoryID = in.CategoryID
		existing.Category = nil
		if in.IsActive != nil {
			existing.IsActive = *in.IsActive
		}
		existing.UpdatedBy = actor
		if err := tx.Products().Update(ctx, existing); err != nil {
			return err
		}

		if delta := in.Stock - oldStock; delta != 0 {
			err := tx.Movements().Record(ctx, &model.StockMovement{
				ProductID:  existing.ID,
				Type:       model.MovementAdjust,
				Quantity:   delta,
				StockAfter: in.Stock,
				Reference:  "admin",
				CreatedBy:  actor,
			})
			if err != nil {
				return fmt.Errorf("record adjustment: %w", err)
			}
		}
		product = existing
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.Info("product updated", zap.String("product_id", id.String()), zap.String("actor", actor))
	s.ledger.Announce("product_updated", product)
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.store.Products().Delete(ctx, id, actor); err != nil {
		if repository.IsNotFound(err) {
			return ErrProductNotFound
		}
		return err
	}
	s.log.Info("product retired", zap.String("product_id", id.String()), zap.String("actor", actor))
	return nil
}

func (s *catalogService) ImageUploadURL(ctx context.Context, productID uuid.UUID, filename, contentType string) (*storage.UploadURL, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	if strings.TrimSpace(filename) == "" {
		return nil, invalidInput("filename is required")
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, invalidInput("content_type must be an image type")
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	up, err := s.uploader.PresignProductImage(ctx, productID, filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadsDisabled, err)
	}
	return up, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.store.Categories().FindAll(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, in CategoryInput, actor string) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if msg := validator.FirstError(in); msg != "" {
		return nil, invalidInput(msg)
	}
	category := &model.Category{Name: in.Name}
	category.CreatedBy = actor
	category.UpdatedBy = actor
	if err := s.store.Categories().Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput, actor string) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if msg := validator.FirstError(in); msg != "" {
		return nil, invalidInput(msg)
	}
	category, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	category.Name = in.Name
	category.UpdatedBy = actor
	if err := s.store.Categories().Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory leaves products pointing at the removed category.
func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.store.Categories().Delete(ctx, id, actor); err != nil {
		if repository.IsNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}
