package service

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9][0-9 .\-()]{5,19}$`)
	siretPattern    = regexp.MustCompile(`^[0-9]{14}$`)
	frVATPattern    = regexp.MustCompile(`^FR[0-9A-Z]{2}[0-9]{9}$`)
	euVATPattern    = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z]{8,12}$`)
	frPostalPattern = regexp.MustCompile(`^[0-9]{5}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// isValidEmail validates an email address format.
// It checks:
//   - Non-empty string
//   - Maximum length of 254 characters (RFC 5321)
//   - local@domain.tld shape
//
// Returns true if the email is valid.
func isValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// isValidPhone accepts international and French notations with separators
func isValidPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 6 && digits <= 15
}

// isValidSiret checks the 14-digit French establishment number
func isValidSiret(siret string) bool {
	return siretPattern.MatchString(siret)
}

// isValidVAT checks the intra-community VAT number shape, strictly for FR
func isValidVAT(vat string) bool {
	vat = strings.ToUpper(strings.ReplaceAll(vat, " ", ""))
	if strings.HasPrefix(vat, "FR") {
		return frVATPattern.MatchString(vat)
	}
	return euVATPattern.MatchString(vat)
}

func isFrench(country string) bool {
	c := strings.ToUpper(strings.TrimSpace(country))
	return c == "FR" || c == "FRANCE"
}

func isValidFrenchPostalCode(code string) bool {
	return frPostalPattern.MatchString(code)
}

func isValidCurrency(code string) bool {
	return currencyPattern.MatchString(code)
}

// tooLong counts runes, not bytes, so accented names are measured fairly
func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// ageOn returns the age in whole years at the given instant
func ageOn(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
