package mysql

import (
	"context"
	"errors"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"gorm.io/gorm"
)

func duplicateNumber(number string) error {
	return &domain.ErrConflict{Field: "invoice_number", Message: "invoice number already exists: " + number}
}

func (s *Store) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	row, err := invoiceRowOf(inv)
	if err != nil {
		return err
	}
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return duplicateNumber(inv.InvoiceNumber)
		}
		return err
	}
	inv.ID = row.ID
	inv.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	row, err := invoiceRowOf(inv)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)

	var cur invoiceRow
	if err := first(db.Select("id", "created_at").Where("id = ? AND owner_id = ?", inv.ID, inv.OwnerID), &cur, "invoice", inv.ID); err != nil {
		return err
	}
	err = db.Model(&invoiceRow{}).
		Where("id = ? AND owner_id = ?", inv.ID, inv.OwnerID).
		Select("*").Omit("id", "owner_id", "created_at").
		Updates(row).Error
	if err != nil {
		if isDuplicate(err) {
			return duplicateNumber(inv.InvoiceNumber)
		}
		return err
	}
	inv.CreatedAt = cur.CreatedAt
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, ownerID, invoiceID int64) (*domain.Invoice, error) {
	var row invoiceRow
	if err := first(s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", invoiceID, ownerID), &row, "invoice", invoiceID); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (s *Store) ListInvoices(ctx context.Context, ownerID int64, f domain.InvoiceFilter) ([]domain.Invoice, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if f.ClientName != "" {
		q = q.Where("LOWER(client_name) = LOWER(?)", f.ClientName)
	}
	q = inRange(q, "date", f.Range)

	var rows []invoiceRow
	if err := q.Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, ownerID, invoiceID int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", invoiceID, ownerID).Delete(&invoiceRow{})
	return affected(res, "invoice", invoiceID)
}

func (s *Store) CountInvoicesByClient(ctx context.Context, name string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&invoiceRow{}).
		Where("LOWER(client_name) = LOWER(?)", name).
		Count(&n).Error
	return int(n), err
}

func (s *Store) ListAllClientNames(ctx context.Context) ([]string, error) {
	return s.clientNames(s.db.WithContext(ctx).Model(&invoiceRow{}))
}

func (s *Store) ListClientNames(ctx context.Context, ownerID int64) ([]string, error) {
	return s.clientNames(s.db.WithContext(ctx).Model(&invoiceRow{}).Where("owner_id = ?", ownerID))
}

func (s *Store) clientNames(q *gorm.DB) ([]string, error) {
	names := make([]string, 0)
	if err := q.Distinct().Order("client_name").Pluck("client_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) LatestInvoiceForClient(ctx context.Context, ownerID int64, name string) (*domain.Invoice, error) {
	var row invoiceRow
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND LOWER(client_name) = LOWER(?)", ownerID, name).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.ErrNotFound{Resource: "client", ID: name}
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}
