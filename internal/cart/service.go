// Package cart owns the ongoing order of a customer: line items, price-at-purchase,
// coupons and submission.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	Store   orders.Store
	Service string // producer name stamped on events
}

func NewService(store orders.Store, service string) *Service {
	return &Service{Store: store, Service: service}
}

type AddResult struct {
	OrderID string           `json:"order_id"`
	Item    orders.OrderItem `json:"item"`
	Total   decimal.Decimal  `json:"total"`
}

// AddItem puts quantity units of a product into the customer's open cart, opening one
// when needed. The stock check here only looks at live stock; checkout re-checks under lock.
func (s *Service) AddItem(ctx context.Context, customerID, productID string, quantity int) (AddResult, error) {
	if quantity <= 0 {
		return AddResult{}, orders.ErrInvalidQuantity
	}
	var res AddResult
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !p.Active {
			return orders.ErrNotFound
		}

		o, err := s.openCart(ctx, tx, customerID, p.SellerID)
		if err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, o.ID)
		if err != nil {
			return err
		}
		if o.SellerID != p.SellerID {
			if len(items) > 0 {
				return orders.ErrMultiSellerCart
			}
			o.SellerID = p.SellerID
		}

		var line *orders.OrderItem
		for i := range items {
			if items[i].ProductID == p.ID {
				line = &items[i]
				break
			}
		}
		merged := quantity
		if line != nil {
			merged += line.Quantity
		}
		if merged > p.Stock {
			return &orders.InsufficientStockError{ProductID: p.ID, Available: p.Stock, Required: merged}
		}

		if line != nil {
			if err := line.SetQuantity(merged); err != nil {
				return err
			}
			if err := tx.UpdateItem(ctx, *line); err != nil {
				return err
			}
			res.Item = *line
		} else {
			it := orders.OrderItem{ID: uuid.NewString(), OrderID: o.ID, ProductID: p.ID, UnitPrice: p.Price}
			if err := it.SetQuantity(quantity); err != nil {
				return err
			}
			if err := tx.InsertItem(ctx, it); err != nil {
				return err
			}
			res.Item = it
		}

		if err := recompute(ctx, tx, &o); err != nil {
			return err
		}
		res.OrderID = o.ID
		res.Total = o.Total
		return nil
	})
	if err != nil {
		return AddResult{}, orders.Abort("add item", err)
	}
	return res, nil
}

// openCart returns the customer's ongoing order, creating it with the first address on file.
func (s *Service) openCart(ctx context.Context, tx orders.Tx, customerID, sellerID string) (orders.Order, error) {
	o, err := tx.FindOngoingOrder(ctx, customerID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, orders.ErrNotFound) {
		return orders.Order{}, err
	}

	addrs, err := tx.ListAddresses(ctx, customerID)
	if err != nil {
		return orders.Order{}, err
	}
	if len(addrs) == 0 {
		return orders.Order{}, orders.ErrAddressRequired
	}
	now := time.Now().UTC()
	o = orders.Order{
		ID:                uuid.NewString(),
		CustomerID:        customerID,
		SellerID:          sellerID,
		ShippingAddressID: addrs[0].ID,
		BillingAddressID:  addrs[0].ID,
		Status:            orders.StatusOngoing,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tx.InsertOrder(ctx, o); err != nil {
		return orders.Order{}, err
	}
	logging.FromContext(ctx).Info("cart_opened", zap.String("order_id", o.ID), zap.String("customer_id", customerID))
	return o, nil
}

func (s *Service) RemoveItem(ctx context.Context, customerID, orderID, itemID string) (orders.Order, error) {
	var o orders.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if o, err = editableCart(ctx, tx, customerID, orderID); err != nil {
			return err
		}
		if _, err := itemOf(ctx, tx, orderID, itemID); err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return recompute(ctx, tx, &o)
	})
	if err != nil {
		return orders.Order{}, orders.Abort("remove item", err)
	}
	return o, nil
}

// UpdateItemQuantity replaces a line quantity. The subtotal is derived from the price
// captured when the line was added, not from the current product price.
func (s *Service) UpdateItemQuantity(ctx context.Context, customerID, orderID, itemID string, newQty int) (orders.Order, error) {
	if newQty <= 0 {
		return orders.Order{}, orders.ErrInvalidQuantity
	}
	var o orders.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if o, err = editableCart(ctx, tx, customerID, orderID); err != nil {
			return err
		}
		it, err := itemOf(ctx, tx, orderID, itemID)
		if err != nil {
			return err
		}
		p, err := tx.GetProduct(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if newQty > p.Stock {
			return &orders.InsufficientStockError{ProductID: p.ID, Available: p.Stock, Required: newQty}
		}
		if err := it.SetQuantity(newQty); err != nil {
			return err
		}
		if err := tx.UpdateItem(ctx, it); err != nil {
			return err
		}
		return recompute(ctx, tx, &o)
	})
	if err != nil {
		return orders.Order{}, orders.Abort("update item", err)
	}
	return o, nil
}

// ApplyCoupon attaches a coupon to the cart. The total stays the sum of subtotals;
// only the amount due changes.
func (s *Service) ApplyCoupon(ctx context.Context, customerID, orderID, code string) (orders.Order, error) {
	var o orders.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if o, err = ownedCart(ctx, tx, customerID, orderID); err != nil {
			return err
		}
		c, err := tx.GetCoupon(ctx, code)
		if err != nil {
			return err
		}
		if !c.Usable(time.Now().UTC()) {
			return orders.ErrInvalidCoupon
		}
		o.CouponCode = c.Code
		o.DiscountPercent = c.DiscountPercent
		return recompute(ctx, tx, &o)
	})
	if err != nil {
		return orders.Order{}, orders.Abort("apply coupon", err)
	}
	return o, nil
}

// Submit confirms the addresses and moves the cart to pending. Empty address ids keep
// the ones chosen when the cart was opened.
func (s *Service) Submit(ctx context.Context, customerID, orderID, shippingAddrID, billingAddrID string) (orders.Order, error) {
	var o orders.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if o, err = owned(ctx, tx, customerID, orderID); err != nil {
			return err
		}
		if err := orders.Transition(&o, orders.StatusPending); err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, o.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return orders.ErrEmptyCart
		}
		if shippingAddrID == "" {
			shippingAddrID = o.ShippingAddressID
		}
		if billingAddrID == "" {
			billingAddrID = o.BillingAddressID
		}
		for _, id := range []string{shippingAddrID, billingAddrID} {
			a, err := tx.GetAddress(ctx, id)
			if err != nil {
				return err
			}
			if a.UserID != customerID {
				return orders.ErrNotFound
			}
		}
		o.ShippingAddressID = shippingAddrID
		o.BillingAddressID = billingAddrID
		o.Recompute(items)
		o.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		ev, err := orders.NewOrderEvent(orders.EventOrderSubmitted, s.Service, o, nil)
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return orders.Order{}, orders.Abort("submit", err)
	}
	logging.FromContext(ctx).Info("cart_submitted",
		zap.String("order_id", o.ID), zap.String("amount_due", o.AmountDue().StringFixed(2)))
	return o, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, orderID string) (orders.Order, error) {
	var o orders.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if o, err = tx.GetOrder(ctx, orderID, false); err != nil {
			return err
		}
		o.Items, err = tx.ListItems(ctx, orderID)
		return err
	})
	return o, err
}

// Current returns the customer's ongoing order with items, or ErrNotFound.
func (s *Service) Current(ctx context.Context, customerID string) (orders.Order, error) {
	var o orders.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if o, err = tx.FindOngoingOrder(ctx, customerID); err != nil {
			return err
		}
		o.Items, err = tx.ListItems(ctx, o.ID)
		return err
	})
	return o, err
}

func (s *Service) List(ctx context.Context, f orders.OrderFilter) ([]orders.Order, error) {
	var out []orders.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		out, err = tx.ListOrders(ctx, f)
		return err
	})
	return out, err
}

// owned locks the order and hides orders of other customers behind ErrOrderNotFound.
func owned(ctx context.Context, tx orders.Tx, customerID, orderID string) (orders.Order, error) {
	o, err := tx.GetOrder(ctx, orderID, true)
	if err != nil {
		return orders.Order{}, err
	}
	if o.CustomerID != customerID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func ownedCart(ctx context.Context, tx orders.Tx, customerID, orderID string) (orders.Order, error) {
	o, err := owned(ctx, tx, customerID, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if o.Status != orders.StatusOngoing {
		return orders.Order{}, &orders.InvalidStateError{Current: o.Status, Expected: []orders.Status{orders.StatusOngoing}}
	}
	return o, nil
}

// editableCart scopes line-item edits: an order that is not the caller's ongoing cart
// holds no editable items, so it reads as ErrNotFound whatever the reason.
func editableCart(ctx context.Context, tx orders.Tx, customerID, orderID string) (orders.Order, error) {
	o, err := ownedCart(ctx, tx, customerID, orderID)
	var state *orders.InvalidStateError
	if errors.Is(err, orders.ErrOrderNotFound) || errors.As(err, &state) {
		return orders.Order{}, orders.ErrNotFound
	}
	return o, err
}

func itemOf(ctx context.Context, tx orders.Tx, orderID, itemID string) (orders.OrderItem, error) {
	it, err := tx.GetItem(ctx, itemID)
	if err != nil {
		return orders.OrderItem{}, err
	}
	if it.OrderID != orderID {
		return orders.OrderItem{}, orders.ErrNotFound
	}
	return it, nil
}

// recompute is the last write of every cart mutation.
func recompute(ctx context.Context, tx orders.Tx, o *orders.Order) error {
	items, err := tx.ListItems(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Recompute(items)
	o.UpdatedAt = time.Now().UTC()
	return tx.UpdateOrder(ctx, *o)
}
