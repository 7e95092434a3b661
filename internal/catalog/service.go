// Package catalog manages what sellers offer and what customers say about it:
// products, categories, coupons, wishlists and reviews.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var maxPrice = decimal.NewFromInt(1_000_000)

type Service struct {
	Store  orders.Store
	Ledger *inventory.Ledger
}

func NewService(store orders.Store, ledger *inventory.Ledger) *Service {
	return &Service{Store: store, Ledger: ledger}
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// ProductPatch carries optional field updates; stock is not patchable.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	CategoryID  *string          `json:"category_id"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"active"`
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(maxPrice) {
		return orders.ErrInvalidPrice
	}
	return nil
}

func validateName(n string) error {
	if strings.TrimSpace(n) == "" || len(n) > 100 {
		return fmt.Errorf("%w: name", orders.ErrInvalidInput)
	}
	return nil
}

// CreateProduct adds a product to the seller's catalog.
func (s *Service) CreateProduct(ctx context.Context, sellerID string, in ProductInput) (orders.Product, error) {
	if err := validateName(in.Name); err != nil {
		return orders.Product{}, err
	}
	if err := validatePrice(in.Price); err != nil {
		return orders.Product{}, err
	}
	if in.Stock < 0 {
		return orders.Product{}, orders.ErrInvalidQuantity
	}
	var p orders.Product
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		cat, err := tx.CatalogOfSeller(ctx, sellerID)
		if err != nil {
			return err
		}
		p = orders.Product{
			ID:          uuid.NewString(),
			CatalogID:   cat.ID,
			SellerID:    sellerID,
			CategoryID:  in.CategoryID,
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       in.Price,
			Stock:       in.Stock,
			Active:      true,
			CreatedAt:   time.Now().UTC(),
		}
		return tx.InsertProduct(ctx, p)
	})
	if err != nil {
		return orders.Product{}, orders.Abort("create product", err)
	}
	return p, nil
}

// UpdateProduct applies a patch to a product the seller owns.
func (s *Service) UpdateProduct(ctx context.Context, sellerID, productID string, patch ProductPatch) (orders.Product, error) {
	var p orders.Product
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if p, err = s.owned(ctx, tx, sellerID, productID); err != nil {
			return err
		}
		if patch.Name != nil {
			if err := validateName(*patch.Name); err != nil {
				return err
			}
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.CategoryID != nil {
			p.CategoryID = *patch.CategoryID
		}
		if patch.Price != nil {
			if err := validatePrice(*patch.Price); err != nil {
				return err
			}
			p.Price = *patch.Price
		}
		if patch.Active != nil {
			p.Active = *patch.Active
		}
		return tx.UpdateProduct(ctx, p)
	})
	if err != nil {
		return orders.Product{}, orders.Abort("update product", err)
	}
	return p, nil
}

// Restock adds stock to a product the seller owns.
func (s *Service) Restock(ctx context.Context, sellerID, productID string, qty int) (int, error) {
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		_, err := s.owned(ctx, tx, sellerID, productID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return s.Ledger.Restock(ctx, productID, qty)
}

func (s *Service) owned(ctx context.Context, tx orders.Tx, sellerID, productID string) (orders.Product, error) {
	p, err := tx.GetProduct(ctx, productID)
	if err != nil {
		return orders.Product{}, err
	}
	if p.SellerID != sellerID {
		return orders.Product{}, orders.ErrForbidden
	}
	return p, nil
}

func (s *Service) Product(ctx context.Context, id string) (orders.Product, error) {
	var p orders.Product
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		p, err = tx.GetProduct(ctx, id)
		return err
	})
	return p, err
}

func (s *Service) Products(ctx context.Context, f orders.ProductFilter) ([]orders.Product, error) {
	var out []orders.Product
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		out, err = tx.ListProducts(ctx, f)
		return err
	})
	return out, err
}

func (s *Service) CreateCategory(ctx context.Context, name string) (orders.Category, error) {
	if err := validateName(name); err != nil {
		return orders.Category{}, err
	}
	c := orders.Category{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		return tx.InsertCategory(ctx, c)
	})
	if err != nil {
		return orders.Category{}, orders.Abort("create category", err)
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id, name string) (orders.Category, error) {
	if err := validateName(name); err != nil {
		return orders.Category{}, err
	}
	c := orders.Category{ID: id, Name: strings.TrimSpace(name)}
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		return tx.UpdateCategory(ctx, c)
	})
	if err != nil {
		return orders.Category{}, orders.Abort("update category", err)
	}
	return c, nil
}

// DeleteCategory drops an empty category; one that still has products is ErrInUse.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		return tx.DeleteCategory(ctx, id)
	})
	return orders.Abort("delete category", err)
}

func (s *Service) Categories(ctx context.Context) ([]orders.Category, error) {
	var out []orders.Category
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		out, err = tx.ListCategories(ctx)
		return err
	})
	return out, err
}

// SaveCoupon creates or replaces a coupon.
func (s *Service) SaveCoupon(ctx context.Context, c orders.Coupon) (orders.Coupon, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return orders.Coupon{}, fmt.Errorf("%w: coupon code", orders.ErrInvalidInput)
	}
	if c.DiscountPercent < 1 || c.DiscountPercent > 100 {
		return orders.Coupon{}, fmt.Errorf("%w: discount must be between 1 and 100", orders.ErrInvalidInput)
	}
	c.ExpiresAt = c.ExpiresAt.UTC()
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		return tx.UpsertCoupon(ctx, c)
	})
	if err != nil {
		return orders.Coupon{}, orders.Abort("save coupon", err)
	}
	return c, nil
}

// AddToWishlist saves an active product to the customer's wishlist.
func (s *Service) AddToWishlist(ctx context.Context, customerID, productID string) (orders.Product, error) {
	var p orders.Product
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if p, err = tx.GetProduct(ctx, productID); err != nil {
			return err
		}
		if !p.Active {
			return orders.ErrNotFound
		}
		return tx.AddWishlist(ctx, customerID, p.ID, time.Now().UTC())
	})
	if err != nil {
		return orders.Product{}, orders.Abort("add to wishlist", err)
	}
	return p, nil
}

func (s *Service) RemoveFromWishlist(ctx context.Context, customerID, productID string) error {
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		return tx.RemoveWishlist(ctx, customerID, productID)
	})
	return orders.Abort("remove from wishlist", err)
}

// Wishlist returns the saved products, newest first.
func (s *Service) Wishlist(ctx context.Context, customerID string) ([]orders.Product, error) {
	var out []orders.Product
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		out, err = tx.ListWishlist(ctx, customerID)
		return err
	})
	return out, err
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Review records the customer's rating of one item of a shipped or delivered order.
func (s *Service) Review(ctx context.Context, customerID, orderID, itemID string, in ReviewInput) (orders.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return orders.Review{}, orders.ErrInvalidRating
	}
	var r orders.Review
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, orderID, false)
		if err != nil {
			return err
		}
		if o.CustomerID != customerID {
			return orders.ErrOrderNotFound
		}
		if o.Status != orders.StatusShipped && o.Status != orders.StatusDelivered {
			return orders.ErrReviewNotAllowed
		}
		it, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if it.OrderID != o.ID {
			return orders.ErrNotFound
		}
		if _, err := tx.ReviewForItem(ctx, it.ID); err == nil {
			return orders.ErrAlreadyReviewed
		} else if !errors.Is(err, orders.ErrNotFound) {
			return err
		}
		r = orders.Review{
			ID:          uuid.NewString(),
			CustomerID:  customerID,
			ProductID:   it.ProductID,
			OrderID:     o.ID,
			OrderItemID: it.ID,
			Rating:      in.Rating,
			Comment:     strings.TrimSpace(in.Comment),
			CreatedAt:   time.Now().UTC(),
		}
		return tx.InsertReview(ctx, r)
	})
	if err != nil {
		return orders.Review{}, orders.Abort("review", err)
	}
	return r, nil
}

func (s *Service) Reviews(ctx context.Context, productID string) ([]orders.Review, error) {
	var out []orders.Review
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		out, err = tx.ListReviews(ctx, productID)
		return err
	})
	return out, err
}
