package accounts

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"
	"brokerage-backend/internal/pkg/constants"
	"brokerage-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Service holds the ledger store and Redis for account operations.
type Service struct {
	Store           *ledger.Store
	Rdb             *redis.Client
	DefaultCurrency string
	// HashCost overrides bcryptCost (tests use bcrypt.MinCost).
	HashCost int
}

// RegisterInput is the signup body.
type RegisterInput struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,password"`
	Fullname    string  `json:"fullname" validate:"required,fullname"`
	Phone       *string `json:"phone"`
	CountryCode *string `json:"country_code" validate:"omitempty,len=2,alpha"`
}

// Profile is a user with their wallet.
type Profile struct {
	User   *domain.User   `json:"user"`
	Wallet *domain.Wallet `json:"wallet"`
}

// Register creates an investor and their empty wallet in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !validation.IsValidEmail(email) {
		return nil, ledger.Validation("Invalid email format")
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ledger.Validation("Invalid password format")
	}
	fullname := strings.TrimSpace(in.Fullname)
	if !validation.IsValidFullname(fullname) {
		return nil, ledger.Validation("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	}
	country, err := normalizeCountry(in.CountryCode)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return nil, err
	}
	currency := s.DefaultCurrency
	if currency == "" {
		currency = "USD"
	}

	out := &Profile{}
	err = s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		var n int64
		if err := tx.DB().Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ledger.Validation("Email already registered")
		}
		u := &domain.User{
			Fullname:     titleCaseAndNormalize(fullname),
			Email:        email,
			PasswordHash: string(hash),
			Phone:        trimmed(in.Phone),
			CountryCode:  country,
			Role:         constants.Investor,
		}
		if err := tx.DB().Create(u).Error; err != nil {
			return err
		}
		w := &domain.Wallet{UserID: u.UserID, Currency: currency}
		if err := tx.DB().Create(w).Error; err != nil {
			return err
		}
		out.User, out.Wallet = u, w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ViewProfile returns the user and their wallet.
func (s *Service) ViewProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	w, err := s.Store.Wallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Wallet: w}, nil
}

// ProfileUpdate lists the fields a user may change on themselves. Nil means unchanged.
type ProfileUpdate struct {
	Fullname    *string `json:"fullname"`
	Phone       *string `json:"phone"`
	CountryCode *string `json:"country_code"`
	Password    *string `json:"password"`
}

// UpdateProfile applies the non-nil fields.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*domain.User, error) {
	upd := map[string]interface{}{}
	if in.Fullname != nil {
		fn := strings.TrimSpace(*in.Fullname)
		if !validation.IsValidFullname(fn) {
			return nil, ledger.Validation("Full name contains invalid characters")
		}
		upd["fullname"] = titleCaseAndNormalize(fn)
	}
	if in.Phone != nil {
		upd["phone"] = trimmed(in.Phone)
	}
	if in.CountryCode != nil {
		country, err := normalizeCountry(in.CountryCode)
		if err != nil {
			return nil, err
		}
		upd["country_code"] = country
	}
	if in.Password != nil {
		if !validation.IsValidPassword(*in.Password) {
			return nil, ledger.Validation("Invalid password format")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost())
		if err != nil {
			return nil, err
		}
		upd["password_hash"] = string(hash)
	}
	if len(upd) == 0 {
		return nil, ledger.Validation("No valid update fields provided")
	}

	result := s.Store.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", userID).Updates(upd)
	if result.Error != nil {
		return nil, ledger.Persistence(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ledger.NotFound("User")
	}
	return s.user(ctx, userID)
}

// RoleChange is a back-office role assignment.
type RoleChange struct {
	ActorID   uuid.UUID
	ActorRole string
	TargetID  uuid.UUID
	Role      string
}

// UpdateRole assigns a role and logs the target out everywhere.
// Only superadmins assign roles, nobody changes their own, and the last superadmin stays.
func (s *Service) UpdateRole(ctx context.Context, in RoleChange) (*domain.User, error) {
	in.Role = constants.Normalize(in.Role)
	if !constants.IsValidRole(in.Role) {
		return nil, ledger.Validation("Invalid role")
	}
	if in.ActorRole != constants.Superadmin {
		return nil, ledger.InvalidTransition("Only superadmins can assign roles", in.ActorRole, in.Role)
	}
	if in.ActorID == in.TargetID {
		return nil, ledger.InvalidTransition("Users cannot modify their own role", in.ActorRole, in.Role)
	}

	var u domain.User
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		if err := tx.Lock(&u, "user_id", in.TargetID, "User"); err != nil {
			return err
		}
		if u.Role == constants.Superadmin && in.Role != constants.Superadmin {
			var count int64
			if err := tx.DB().Model(&domain.User{}).Where("role = ?", constants.Superadmin).Count(&count).Error; err != nil {
				return err
			}
			if count <= 1 {
				return ledger.InvalidTransition("At least one superadmin must remain", u.Role, in.Role)
			}
		}
		u.Role = in.Role
		return tx.DB().Model(&u).Update("role", u.Role).Error
	})
	if err != nil {
		return nil, err
	}
	DestroyUserSessions(ctx, s.Rdb, in.TargetID.String())
	return &u, nil
}

func (s *Service) user(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.Store.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.NotFound("User")
		}
		return nil, ledger.Persistence(err)
	}
	return &u, nil
}

func (s *Service) cost() int {
	if s.HashCost > 0 {
		return s.HashCost
	}
	return bcryptCost
}

func normalizeCountry(code *string) (*string, error) {
	c := trimmed(code)
	if c == nil {
		return nil, nil
	}
	up := strings.ToUpper(*c)
	if len(up) != 2 || !unicode.IsLetter(rune(up[0])) || !unicode.IsLetter(rune(up[1])) {
		return nil, ledger.Validation("country_code must be a two-letter ISO code")
	}
	return &up, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func titleCaseAndNormalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	capitalize := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
