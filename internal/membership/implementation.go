// internal/membership/implementation.go
package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/time/rate"
)

// service implements the Service interface.
type service struct {
	db          *sql.DB
	rateLimiter *rate.Limiter
}

// NewService creates a new membership service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:          db,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// RegisterMember creates a new member with hashed credentials.
func (s *service) RegisterMember(ctx context.Context, email, name, password string) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := &Member{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}
	credential := &Credential{
		MemberID:     member.ID,
		PasswordHash: passwordHash,
		Salt:         salt,
	}

	if err := s.insertMember(ctx, member, credential); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("register member: %w", err)
	}

	return member, nil
}

func (s *service) insertMember(ctx context.Context, member *Member, credential *Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members (id, email, name, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, member.ID, member.Email, member.Name, member.Status, member.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (member_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`, credential.MemberID, credential.PasswordHash, credential.Salt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Authenticate verifies a member's credentials and returns the member if successful.
func (s *service) Authenticate(ctx context.Context, email, password string) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	member, err := s.getMemberByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	credential, err := s.getCredential(ctx, member.ID)
	if err != nil {
		return nil, err
	}

	ok, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return member, nil
}

// GetMember retrieves a member by id.
func (s *service) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	member := &Member{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, status, created_at
		FROM members
		WHERE id = $1
	`, id).Scan(&member.ID, &member.Email, &member.Name, &member.Status, &member.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

func (s *service) getMemberByEmail(ctx context.Context, email string) (*Member, error) {
	member := &Member{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, status, created_at
		FROM members
		WHERE email = $1
	`, email).Scan(&member.ID, &member.Email, &member.Name, &member.Status, &member.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return member, nil
}

func (s *service) getCredential(ctx context.Context, memberID uuid.UUID) (*Credential, error) {
	credential := &Credential{}
	err := s.db.QueryRowContext(ctx, `
		SELECT member_id, password_hash, salt
		FROM credentials
		WHERE member_id = $1
	`, memberID).Scan(&credential.MemberID, &credential.PasswordHash, &credential.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return credential, nil
}
