package domain_test

import (
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestGenerateInvoiceNumber(t *testing.T) {
	now := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		client   string
		others   []string
		existing int
		want     string
	}{
		{"first invoice", "Acme", nil, 0, "ACM.2026.001"},
		{"third invoice", "Acme", []string{"Acme", "acme"}, 2, "ACM.2026.003"},
		{"prefix collision widens", "Acme", []string{"Acme", "Acumen"}, 2, "ACME.2026.003"},
		{"bridge deal vs design", "Bridge Deal", []string{"Bridge Design"}, 0, "BRID.2026.001"},
		{"case-only difference is the same client", "acme", []string{"ACME"}, 1, "ACM.2026.002"},
		{"unrelated names keep three", "Zenith", []string{"Acme", "Bridge"}, 0, "ZEN.2026.001"},
		{"short name", "Al", nil, 0, "AL.2026.001"},
		{"three letters with collision", "Abc", []string{"Abcd"}, 0, "ABC.2026.001"},
		{"non-ascii runes", "Émile", []string{"Émilie"}, 0, "ÉMIL.2026.001"},
		{"sequence padding", "Acme", nil, 41, "ACM.2026.042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.GenerateInvoiceNumber(tt.client, tt.others, tt.existing, now))
		})
	}
}

func TestGenerateInvoiceNumber_UsesYearOfNow(t *testing.T) {
	got := domain.GenerateInvoiceNumber("Acme", nil, 0, time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "ACM.2031.001", got)
}
