package service

import (
	"context"
	"fmt"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// ChangePassword: POST /v1/auth/change-password
// ============================================================

// ChangePassword verifies the current password, stores the new hash and
// revokes every refresh token so other sessions must log in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *domain.ChangePasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ChangePassword")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return &domain.ErrUnauthorized{Message: "user no longer exists"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		s.logger.Warn("password change: wrong current password", zap.Int64("user_id", userID))
		return &domain.ErrUnauthorized{Message: "current password is incorrect"}
	}

	if len(req.NewPassword) < domain.MinPasswordLength {
		return &domain.ErrValidation{Field: "new_password", Message: "password must be at least 6 characters"}
	}
	if req.NewPassword == req.CurrentPassword {
		return &domain.ErrValidation{Field: "new_password", Message: "new password must differ from the current one"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.store.RevokeAllRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	s.logger.Info("password changed", zap.Int64("user_id", userID))
	return nil
}
