package mysql

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Rows mirror the tables created by the migrations. Money columns are
// DECIMAL and scan straight into decimal.Decimal.

type budgetRow struct {
	ID        int64 `gorm:"primaryKey"`
	OwnerID   int64
	Category  string
	Allocated decimal.Decimal
	Spent     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (budgetRow) TableName() string { return "budgets" }

func (r *budgetRow) toDomain() *domain.Budget {
	return &domain.Budget{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Category:  r.Category,
		Allocated: r.Allocated,
		Spent:     r.Spent,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type expenseRow struct {
	ID        int64 `gorm:"primaryKey"`
	OwnerID   int64
	BudgetID  int64
	Category  string
	Amount    decimal.Decimal
	Date      time.Time
	CreatedAt time.Time
}

func (expenseRow) TableName() string { return "expenses" }

func expenseRowOf(e *domain.Expense) *expenseRow {
	return &expenseRow{
		ID:        e.ID,
		OwnerID:   e.OwnerID,
		BudgetID:  e.BudgetID,
		Category:  e.Category,
		Amount:    e.Amount,
		Date:      e.Date.Time,
		CreatedAt: e.CreatedAt,
	}
}

func (r *expenseRow) toDomain() domain.Expense {
	return domain.Expense{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		BudgetID:  r.BudgetID,
		Category:  r.Category,
		Amount:    r.Amount,
		Date:      domain.NewDate(r.Date),
		CreatedAt: r.CreatedAt,
	}
}

func expensesOf(rows []expenseRow) []domain.Expense {
	out := make([]domain.Expense, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}

type invoiceRow struct {
	ID              int64 `gorm:"primaryKey"`
	OwnerID         int64
	ClientName      string
	ClientLocation  string
	ClientAddress   string
	ClientTIN       string `gorm:"column:client_tin"`
	ClientEmail     string
	Date            time.Time
	Heading         string
	Subtitle        string
	Items           []byte
	VATRate         decimal.Decimal `gorm:"column:vat_rate"`
	IncludeDays     bool
	IncludeAgentFee bool
	AgentFee        decimal.Decimal
	TotalAmount     decimal.Decimal
	InvoiceNumber   string
	SignatureChoice *string
	CreatedAt       time.Time
}

func (invoiceRow) TableName() string { return "invoices" }

func invoiceRowOf(inv *domain.Invoice) (*invoiceRow, error) {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	return &invoiceRow{
		ID:              inv.ID,
		OwnerID:         inv.OwnerID,
		ClientName:      inv.ClientName,
		ClientLocation:  inv.ClientLocation,
		ClientAddress:   inv.ClientAddress,
		ClientTIN:       inv.ClientTIN,
		ClientEmail:     inv.ClientEmail,
		Date:            inv.Date.Time,
		Heading:         inv.Heading,
		Subtitle:        inv.Subtitle,
		Items:           items,
		VATRate:         inv.VATRate,
		IncludeDays:     inv.IncludeDays,
		IncludeAgentFee: inv.IncludeAgentFee,
		AgentFee:        inv.AgentFee,
		TotalAmount:     inv.TotalAmount,
		InvoiceNumber:   inv.InvoiceNumber,
		SignatureChoice: inv.SignatureChoice,
		CreatedAt:       inv.CreatedAt,
	}, nil
}

func (r *invoiceRow) toDomain() (*domain.Invoice, error) {
	var items []domain.InvoiceItem
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &items); err != nil {
			return nil, fmt.Errorf("decode items of invoice %d: %w", r.ID, err)
		}
	}
	return &domain.Invoice{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		ClientName:      r.ClientName,
		ClientLocation:  r.ClientLocation,
		ClientAddress:   r.ClientAddress,
		ClientTIN:       r.ClientTIN,
		ClientEmail:     r.ClientEmail,
		Date:            domain.NewDate(r.Date),
		Heading:         r.Heading,
		Subtitle:        r.Subtitle,
		Items:           items,
		VATRate:         r.VATRate,
		IncludeDays:     r.IncludeDays,
		IncludeAgentFee: r.IncludeAgentFee,
		AgentFee:        r.AgentFee,
		TotalAmount:     r.TotalAmount,
		InvoiceNumber:   r.InvoiceNumber,
		SignatureChoice: r.SignatureChoice,
		CreatedAt:       r.CreatedAt,
	}, nil
}

type earningRow struct {
	ID        int64 `gorm:"primaryKey"`
	OwnerID   int64
	Project   string
	Amount    decimal.Decimal
	Date      time.Time
	CreatedAt time.Time
}

func (earningRow) TableName() string { return "earnings" }

func (r *earningRow) toDomain() domain.Earning {
	return domain.Earning{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Project:   r.Project,
		Amount:    r.Amount,
		Date:      domain.NewDate(r.Date),
		CreatedAt: r.CreatedAt,
	}
}

type investmentRow struct {
	ID      int64 `gorm:"primaryKey"`
	OwnerID int64
	Type    string
	Amount  decimal.Decimal
}

func (investmentRow) TableName() string { return "investments" }

type documentRow struct {
	ID          int64 `gorm:"primaryKey"`
	OwnerID     int64
	Title       string
	FileName    string
	FileType    string
	ContentType string
	Size        int64
	BlobKey     string
	UploadedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

func (r *documentRow) toDomain() domain.Document {
	return domain.Document{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		FileName:    r.FileName,
		FileType:    r.FileType,
		ContentType: r.ContentType,
		Size:        r.Size,
		BlobKey:     r.BlobKey,
		UploadedAt:  r.UploadedAt,
	}
}

type profileRow struct {
	OwnerID        int64 `gorm:"primaryKey;autoIncrement:false"`
	ProfilePicture string
	Name           string
	Email          string
	Phone          string
	Address        string
	DateOfBirth    *time.Time
	AccountCreated time.Time
	Language       string
	Theme          string
	UpdatedAt      time.Time
}

func (profileRow) TableName() string { return "profiles" }

func profileRowOf(p *domain.Profile) *profileRow {
	row := &profileRow{
		OwnerID:        p.OwnerID,
		ProfilePicture: p.ProfilePicture,
		Name:           p.Name,
		Email:          p.Email,
		Phone:          p.Phone,
		Address:        p.Address,
		AccountCreated: p.AccountCreated.Time,
		Language:       p.Language,
		Theme:          p.Theme,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.Time
		row.DateOfBirth = &dob
	}
	return row
}

func (r *profileRow) toDomain() *domain.Profile {
	p := &domain.Profile{
		OwnerID:        r.OwnerID,
		ProfilePicture: r.ProfilePicture,
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Address:        r.Address,
		AccountCreated: domain.NewDate(r.AccountCreated),
		Language:       r.Language,
		Theme:          r.Theme,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.DateOfBirth != nil {
		dob := domain.NewDate(*r.DateOfBirth)
		p.DateOfBirth = &dob
	}
	return p
}

type userRow struct {
	ID           int64 `gorm:"primaryKey"`
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type refreshTokenRow struct {
	TokenHash string `gorm:"primaryKey"`
	UserID    int64
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (refreshTokenRow) TableName() string { return "refresh_tokens" }
