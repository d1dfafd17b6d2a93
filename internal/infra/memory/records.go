package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
)

// ============================================================
// Earnings
// ============================================================

func (s *Store) CreateEarning(_ context.Context, e *domain.Earning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.id()
	e.CreatedAt = s.now()
	s.earnings[e.ID] = *e
	return nil
}

func (s *Store) UpdateEarning(_ context.Context, e *domain.Earning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.earnings[e.ID]
	if !ok || cur.OwnerID != e.OwnerID {
		return notFound("earning", e.ID)
	}
	e.CreatedAt = cur.CreatedAt
	s.earnings[e.ID] = *e
	return nil
}

func (s *Store) GetEarning(_ context.Context, ownerID, earningID int64) (*domain.Earning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.earnings[earningID]
	if !ok || e.OwnerID != ownerID {
		return nil, notFound("earning", earningID)
	}
	return &e, nil
}

func (s *Store) ListEarnings(_ context.Context, ownerID int64, f domain.EarningFilter) ([]domain.Earning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Earning, 0)
	for _, e := range s.earnings {
		if e.OwnerID != ownerID {
			continue
		}
		if f.Project != "" && !strings.EqualFold(e.Project, f.Project) {
			continue
		}
		if !f.Range.Contains(e.Date) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteEarning(_ context.Context, ownerID, earningID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.earnings[earningID]
	if !ok || e.OwnerID != ownerID {
		return notFound("earning", earningID)
	}
	delete(s.earnings, earningID)
	return nil
}

// ============================================================
// Investments
// ============================================================

func (s *Store) CreateInvestment(_ context.Context, i *domain.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i.ID = s.id()
	s.investments[i.ID] = *i
	return nil
}

func (s *Store) UpdateInvestment(_ context.Context, i *domain.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.investments[i.ID]
	if !ok || cur.OwnerID != i.OwnerID {
		return notFound("investment", i.ID)
	}
	s.investments[i.ID] = *i
	return nil
}

func (s *Store) GetInvestment(_ context.Context, ownerID, investmentID int64) (*domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.investments[investmentID]
	if !ok || i.OwnerID != ownerID {
		return nil, notFound("investment", investmentID)
	}
	return &i, nil
}

func (s *Store) ListInvestments(_ context.Context, ownerID int64) ([]domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Investment, 0)
	for _, i := range s.investments {
		if i.OwnerID == ownerID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *Store) DeleteInvestment(_ context.Context, ownerID, investmentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.investments[investmentID]
	if !ok || i.OwnerID != ownerID {
		return notFound("investment", investmentID)
	}
	delete(s.investments, investmentID)
	return nil
}

// ============================================================
// Documents
// ============================================================

func (s *Store) CreateDocument(_ context.Context, d *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.id()
	d.UploadedAt = s.now()
	s.documents[d.ID] = *d
	return nil
}

func (s *Store) GetDocument(_ context.Context, ownerID, documentID int64) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[documentID]
	if !ok || d.OwnerID != ownerID {
		return nil, notFound("document", documentID)
	}
	return &d, nil
}

func (s *Store) ListDocuments(_ context.Context, ownerID int64) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Document, 0)
	for _, d := range s.documents {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) DeleteDocument(_ context.Context, ownerID, documentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[documentID]
	if !ok || d.OwnerID != ownerID {
		return notFound("document", documentID)
	}
	delete(s.documents, documentID)
	return nil
}

// ============================================================
// Profiles
// ============================================================

func (s *Store) GetProfile(_ context.Context, ownerID int64) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[ownerID]
	if !ok {
		return nil, notFound("profile", ownerID)
	}
	return &p, nil
}

func (s *Store) SaveProfile(_ context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = s.now()
	s.profiles[p.OwnerID] = *p
	return nil
}

// ============================================================
// Users & refresh tokens
// ============================================================

func (s *Store) CreateUser(_ context.Context, u *domain.User, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return &domain.ErrConflict{Field: "username", Message: "username already taken"}
		}
	}
	u.ID = s.id()
	u.CreatedAt = s.now()
	s.users[u.ID] = *u

	if p != nil {
		p.OwnerID = u.ID
		s.profiles[u.ID] = *p
	}
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByID(_ context.Context, userID int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "user", ID: strconv.FormatInt(userID, 10)}
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

func (s *Store) StoreRefreshToken(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[tokenHash] = domain.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (s *Store) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return nil, nil
	}
	return &t, nil
}

func (s *Store) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := s.now()
		t.RevokedAt = &now
		s.tokens[tokenHash] = t
	}
	return nil
}

func (s *Store) RevokeAllRefreshTokens(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for h, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.tokens[h] = t
		}
	}
	return nil
}
