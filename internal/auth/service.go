package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials indicates sign-in failure. Unknown email and wrong
// password collapse into the same error so responses do not reveal which
// accounts exist.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Account is the slice of the user record sign-in needs.
type Account struct {
	ID           uuid.UUID
	PasswordHash string
}

// AccountLookup finds the account backing an email address. Implementations
// return ErrUserNotFound on a miss.
type AccountLookup interface {
	AccountByEmail(ctx context.Context, email string) (Account, error)
}

// Service wraps authentication business rules.
type Service struct {
	accounts AccountLookup
	tokens   *TokenIssuer
}

// NewService constructs a new Service.
func NewService(accounts AccountLookup, tokens *TokenIssuer) *Service {
	return &Service{accounts: accounts, tokens: tokens}
}

// SignIn validates email/password credentials and issues an access token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, uuid.UUID, error) {
	account, err := s.accounts.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", uuid.Nil, ErrInvalidCredentials
		}
		return "", uuid.Nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", uuid.Nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return "", uuid.Nil, err
	}
	return token, account.ID, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
