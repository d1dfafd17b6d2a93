package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	invoicePrefixLen     = 3
	invoicePrefixLenLong = 4
)

// GenerateInvoiceNumber builds "{PREFIX}.{YEAR}.{SEQ}" for a client.
//
// The prefix is the first three letters of the upper-cased name, widened to
// four when any other distinct client name shares those three letters.
// existingCount is the number of invoices already issued to the client
// (case-insensitive match); the sequence is that count plus one.
func GenerateInvoiceNumber(clientName string, allClientNames []string, existingCount int, now time.Time) string {
	name := strings.ToUpper(strings.TrimSpace(clientName))
	prefix := runePrefix(name, invoicePrefixLen)

	seen := make(map[string]struct{}, len(allClientNames))
	for _, other := range allClientNames {
		other = strings.ToUpper(strings.TrimSpace(other))
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}

		if other != name && strings.HasPrefix(other, prefix) {
			prefix = runePrefix(name, invoicePrefixLenLong)
			break
		}
	}

	return fmt.Sprintf("%s.%04d.%03d", prefix, now.Year(), existingCount+1)
}

func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
