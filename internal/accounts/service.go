// Package accounts registers users, checks credentials, keeps address books and
// backs the admin user console.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	maxNameLen     = 100
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

type Service struct {
	Store orders.Store
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func NewService(store orders.Store) *Service { return &Service{Store: store} }

type RegisterInput struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Role     orders.Role `json:"role"`
}

func (in RegisterInput) validate() error {
	switch {
	case !emailPattern.MatchString(strings.TrimSpace(in.Email)):
		return fmt.Errorf("%w: email", orders.ErrInvalidInput)
	case len(in.Password) < minPasswordLen:
		return fmt.Errorf("%w: password must be at least %d characters", orders.ErrInvalidInput, minPasswordLen)
	case strings.TrimSpace(in.Name) == "" || len(in.Name) > maxNameLen:
		return fmt.Errorf("%w: name", orders.ErrInvalidInput)
	case !in.Role.Valid():
		return fmt.Errorf("%w: role %q", orders.ErrInvalidInput, in.Role)
	}
	return nil
}

// Register creates a user. Sellers get their catalog in the same transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (orders.User, error) {
	if in.Role == "" {
		in.Role = orders.RoleCustomer
	}
	if err := in.validate(); err != nil {
		return orders.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return orders.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := orders.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	err = s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		if err := tx.InsertUser(ctx, u); err != nil {
			return err
		}
		if u.Role != orders.RoleSeller {
			return nil
		}
		return tx.InsertCatalog(ctx, orders.Catalog{ID: uuid.NewString(), SellerID: u.ID, Name: u.Name + "'s catalog"})
	})
	if err != nil {
		return orders.User{}, orders.Abort("register", err)
	}
	logging.FromContext(ctx).Info("user_registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Login returns the user for a matching email and password. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (orders.User, error) {
	var u orders.User
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		u, err = tx.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		return err
	})
	if errors.Is(err, orders.ErrNotFound) {
		return orders.User{}, orders.ErrInvalidCredentials
	}
	if err != nil {
		return orders.User{}, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return orders.User{}, orders.ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) User(ctx context.Context, id string) (orders.User, error) {
	var u orders.User
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		u, err = tx.GetUser(ctx, id)
		return err
	})
	return u, err
}

// UserPatch carries the fields an administrator may change; nil leaves a field as is.
type UserPatch struct {
	Email *string      `json:"email"`
	Name  *string      `json:"name"`
	Role  *orders.Role `json:"role"`
}

// Users lists accounts for the admin console, optionally only one role.
func (s *Service) Users(ctx context.Context, role orders.Role) ([]orders.User, error) {
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", orders.ErrInvalidInput, role)
	}
	var out []orders.User
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		out, err = tx.ListUsers(ctx, role)
		return err
	})
	return out, err
}

// UpdateUser edits name, email or role. Promoting someone to seller opens their
// catalog in the same transaction.
func (s *Service) UpdateUser(ctx context.Context, id string, patch UserPatch) (orders.User, error) {
	var u orders.User
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if u, err = tx.GetUser(ctx, id); err != nil {
			return err
		}
		if patch.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*patch.Email))
			if !emailPattern.MatchString(email) {
				return fmt.Errorf("%w: email", orders.ErrInvalidInput)
			}
			u.Email = email
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" || len(name) > maxNameLen {
				return fmt.Errorf("%w: name", orders.ErrInvalidInput)
			}
			u.Name = name
		}
		if patch.Role != nil {
			if !patch.Role.Valid() {
				return fmt.Errorf("%w: role %q", orders.ErrInvalidInput, *patch.Role)
			}
			u.Role = *patch.Role
		}
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		if u.Role != orders.RoleSeller {
			return nil
		}
		_, err = tx.CatalogOfSeller(ctx, u.ID)
		if errors.Is(err, orders.ErrNotFound) {
			return tx.InsertCatalog(ctx, orders.Catalog{ID: uuid.NewString(), SellerID: u.ID, Name: u.Name + "'s catalog"})
		}
		return err
	})
	if err != nil {
		return orders.User{}, orders.Abort("update user", err)
	}
	return u, nil
}

// DeleteUser removes an account that no order, review or product refers to.
// Administrators cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("%w: cannot delete your own account", orders.ErrForbidden)
	}
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		return tx.DeleteUser(ctx, id)
	})
	if err != nil {
		return orders.Abort("delete user", err)
	}
	logging.FromContext(ctx).Info("user_deleted", zap.String("user_id", id), zap.String("by", actorID))
	return nil
}

func validateAddress(a orders.Address) error {
	if strings.TrimSpace(a.Line) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Country) == "" {
		return fmt.Errorf("%w: address line, city and country are required", orders.ErrInvalidInput)
	}
	return nil
}

func (s *Service) AddAddress(ctx context.Context, userID string, a orders.Address) (orders.Address, error) {
	if err := validateAddress(a); err != nil {
		return orders.Address{}, err
	}
	a.ID = uuid.NewString()
	a.UserID = userID
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		return tx.InsertAddress(ctx, a)
	})
	if err != nil {
		return orders.Address{}, orders.Abort("add address", err)
	}
	return a, nil
}

// UpdateAddress rewrites one of the user's addresses. Orders keep pointing at it, so
// the edit also changes where pending orders ship.
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, a orders.Address) (orders.Address, error) {
	if err := validateAddress(a); err != nil {
		return orders.Address{}, err
	}
	a.ID = addressID
	a.UserID = userID
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		return tx.UpdateAddress(ctx, a)
	})
	if err != nil {
		return orders.Address{}, orders.Abort("update address", err)
	}
	return a, nil
}

// DeleteAddress removes an address no order uses. Addresses of other users read as missing.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		a, err := tx.GetAddress(ctx, addressID)
		if err != nil {
			return err
		}
		if a.UserID != userID {
			return orders.ErrNotFound
		}
		return tx.DeleteAddress(ctx, addressID)
	})
	return orders.Abort("delete address", err)
}

func (s *Service) Addresses(ctx context.Context, userID string) ([]orders.Address, error) {
	var out []orders.Address
	err := s.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		out, err = tx.ListAddresses(ctx, userID)
		return err
	})
	return out, err
}

func (s *Service) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}
