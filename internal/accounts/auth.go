package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

const RoleAdmin = "admin"

const minPasswordLength = 8

// Authenticator checks admin credentials and issues HS256 access tokens.
type Authenticator struct {
	store     Store
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewAuthenticator(store Store, secret string, accessTTL time.Duration) *Authenticator {
	return &Authenticator{store: store, secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

// Login returns a signed token for valid credentials. Unknown emails and wrong
// passwords produce the same error.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return "", apperr.New(apperr.KindUnauthorized, "email and password are required")
	}

	admin, err := a.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, err, "admin lookup failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub":   admin.ID.Hex(),
		"role":  RoleAdmin,
		"email": admin.Email,
		"exp":   a.now().Add(a.accessTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, err, "token generation failed")
	}
	return signed, nil
}

// CreateAdmin hashes password and stores a new admin.
func CreateAdmin(ctx context.Context, store Store, email, password string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{Email: email, PasswordHash: string(hash)}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
