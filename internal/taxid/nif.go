// Package taxid normalizes Portuguese tax identifiers (NIF) and resolves
// them to company names through an ordered chain of lookup providers.
package taxid

import (
	"fmt"
	"regexp"
	"strings"

	"despesify/internal/domain"
)

var (
	nifSeparators      = strings.NewReplacer(" ", "", ".", "", "-", "", "\u00a0", "")
	nifDigits          = regexp.MustCompile(`^\d{9}$`)
	leadingPreposition = regexp.MustCompile(`(?i)^(?:da|do|de|dos|das)\s+`)
	runsOfSpace        = regexp.MustCompile(`\s+`)
)

// Normalize strips separators and an optional PT prefix and requires
// exactly nine digits.
func Normalize(raw string) (string, error) {
	s := strings.ToUpper(nifSeparators.Replace(strings.TrimSpace(raw)))
	s = strings.TrimPrefix(s, "PT")
	if !nifDigits.MatchString(s) {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrInvalidNIF)
	}
	return s, nil
}

// CleanCompanyName drops a leading Portuguese preposition left over from
// page descriptions ("da Empresa X") and collapses whitespace.
func CleanCompanyName(name string) string {
	s := strings.TrimSpace(runsOfSpace.ReplaceAllString(name, " "))
	return strings.TrimSpace(leadingPreposition.ReplaceAllString(s, ""))
}
