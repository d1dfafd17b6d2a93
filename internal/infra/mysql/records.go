package mysql

import (
	"context"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// owned checks that the owner's row exists. MySQL counts unchanged rows as
// unaffected, so updates check existence up front.
func owned(q *gorm.DB, model any, ownerID, id int64, resource string) error {
	var n int64
	if err := q.Model(model).Where("id = ? AND owner_id = ?", id, ownerID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound(resource, id)
	}
	return nil
}

// ============================================================
// Earnings
// ============================================================

func (s *Store) CreateEarning(ctx context.Context, e *domain.Earning) error {
	row := earningRow{OwnerID: e.OwnerID, Project: e.Project, Amount: e.Amount, Date: e.Date.Time}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*e = row.toDomain()
	return nil
}

func (s *Store) UpdateEarning(ctx context.Context, e *domain.Earning) error {
	db := s.db.WithContext(ctx)
	if err := owned(db, &earningRow{}, e.OwnerID, e.ID, "earning"); err != nil {
		return err
	}
	err := db.Model(&earningRow{}).
		Where("id = ? AND owner_id = ?", e.ID, e.OwnerID).
		Updates(map[string]any{"project": e.Project, "amount": e.Amount, "date": e.Date.Time}).Error
	if err != nil {
		return err
	}
	var row earningRow
	if err := first(db.Where("id = ?", e.ID), &row, "earning", e.ID); err != nil {
		return err
	}
	*e = row.toDomain()
	return nil
}

func (s *Store) GetEarning(ctx context.Context, ownerID, earningID int64) (*domain.Earning, error) {
	var row earningRow
	if err := first(s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", earningID, ownerID), &row, "earning", earningID); err != nil {
		return nil, err
	}
	e := row.toDomain()
	return &e, nil
}

func (s *Store) ListEarnings(ctx context.Context, ownerID int64, f domain.EarningFilter) ([]domain.Earning, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if f.Project != "" {
		q = q.Where("LOWER(project) = LOWER(?)", f.Project)
	}
	q = inRange(q, "date", f.Range)

	var rows []earningRow
	if err := q.Order("date DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Earning, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) DeleteEarning(ctx context.Context, ownerID, earningID int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", earningID, ownerID).Delete(&earningRow{})
	return affected(res, "earning", earningID)
}

// ============================================================
// Investments
// ============================================================

func (s *Store) CreateInvestment(ctx context.Context, i *domain.Investment) error {
	row := investmentRow{OwnerID: i.OwnerID, Type: i.Type, Amount: i.Amount}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	i.ID = row.ID
	return nil
}

func (s *Store) UpdateInvestment(ctx context.Context, i *domain.Investment) error {
	db := s.db.WithContext(ctx)
	if err := owned(db, &investmentRow{}, i.OwnerID, i.ID, "investment"); err != nil {
		return err
	}
	return db.Model(&investmentRow{}).
		Where("id = ? AND owner_id = ?", i.ID, i.OwnerID).
		Updates(map[string]any{"type": i.Type, "amount": i.Amount}).Error
}

func (s *Store) GetInvestment(ctx context.Context, ownerID, investmentID int64) (*domain.Investment, error) {
	var row investmentRow
	if err := first(s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", investmentID, ownerID), &row, "investment", investmentID); err != nil {
		return nil, err
	}
	return &domain.Investment{ID: row.ID, OwnerID: row.OwnerID, Type: row.Type, Amount: row.Amount}, nil
}

func (s *Store) ListInvestments(ctx context.Context, ownerID int64) ([]domain.Investment, error) {
	var rows []investmentRow
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Investment, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Investment{ID: r.ID, OwnerID: r.OwnerID, Type: r.Type, Amount: r.Amount})
	}
	return out, nil
}

func (s *Store) DeleteInvestment(ctx context.Context, ownerID, investmentID int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", investmentID, ownerID).Delete(&investmentRow{})
	return affected(res, "investment", investmentID)
}

// ============================================================
// Documents
// ============================================================

func (s *Store) CreateDocument(ctx context.Context, d *domain.Document) error {
	row := documentRow{
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		FileName:    d.FileName,
		FileType:    d.FileType,
		ContentType: d.ContentType,
		Size:        d.Size,
		BlobKey:     d.BlobKey,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*d = row.toDomain()
	return nil
}

func (s *Store) GetDocument(ctx context.Context, ownerID, documentID int64) (*domain.Document, error) {
	var row documentRow
	if err := first(s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", documentID, ownerID), &row, "document", documentID); err != nil {
		return nil, err
	}
	d := row.toDomain()
	return &d, nil
}

func (s *Store) ListDocuments(ctx context.Context, ownerID int64) ([]domain.Document, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Document, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) DeleteDocument(ctx context.Context, ownerID, documentID int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", documentID, ownerID).Delete(&documentRow{})
	return affected(res, "document", documentID)
}

// ============================================================
// Profiles
// ============================================================

func (s *Store) GetProfile(ctx context.Context, ownerID int64) (*domain.Profile, error) {
	var row profileRow
	if err := first(s.db.WithContext(ctx).Where("owner_id = ?", ownerID), &row, "profile", ownerID); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// SaveProfile upserts on owner_id.
func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	row := profileRowOf(p)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
	if err != nil {
		return err
	}
	p.UpdatedAt = row.UpdatedAt
	return nil
}
