package mysql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"gorm.io/gorm"
)

// CreateUser inserts the user and its profile in one transaction.
func (s *Store) CreateUser(ctx context.Context, u *domain.User, p *domain.Profile) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := userRow{Username: u.Username, Email: u.Email, PasswordHash: u.PasswordHash}
		if err := tx.Create(&row).Error; err != nil {
			if isDuplicate(err) {
				return &domain.ErrConflict{Field: "username", Message: "username already taken"}
			}
			return err
		}
		u.ID = row.ID
		u.CreatedAt = row.CreatedAt

		if p == nil {
			return nil
		}
		p.OwnerID = u.ID
		return tx.Create(profileRowOf(p)).Error
	})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(s.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username))
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	return s.findUser(s.db.WithContext(ctx).Where("id = ?", userID))
}

func (s *Store) findUser(q *gorm.DB) (*domain.User, error) {
	var row userRow
	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return &domain.ErrNotFound{Resource: "user", ID: strconv.FormatInt(userID, 10)}
	}
	return s.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash).Error
}

func (s *Store) StoreRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Create(&refreshTokenRow{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}).Error
}

// GetRefreshToken returns the live token with the hash, or nil.
func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var row refreshTokenRow
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.RefreshToken{
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
		RevokedAt: row.RevokedAt,
	}, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return s.db.WithContext(ctx).Model(&refreshTokenRow{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Update("revoked_at", time.Now().UTC()).Error
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Model(&refreshTokenRow{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now().UTC()).Error
}
