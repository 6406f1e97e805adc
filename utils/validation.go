package utils

import (
	"regexp"
	"strings"
)

var (
	cepPattern   = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	phonePattern = regexp.MustCompile(`^\(?\d{2}\)?\s?9?\d{4}-?\d{4}$`)
)

// brazilianStates is the set of valid UF codes.
var brazilianStates = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true,
	"DF": true, "ES": true, "GO": true, "MA": true, "MT": true, "MS": true,
	"MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true,
	"SP": true, "SE": true, "TO": true,
}

// IsValidUF reports whether the two-letter state code exists.
func IsValidUF(uf string) bool {
	return brazilianStates[strings.ToUpper(strings.TrimSpace(uf))]
}

// IsValidCEP validates the Brazilian postal code format (12345-678 or 12345678).
func IsValidCEP(cep string) bool {
	return cepPattern.MatchString(strings.TrimSpace(cep))
}

// IsValidPhone accepts common Brazilian phone spellings, with or without
// area code punctuation.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// IsValidCPF checks the CPF check digits. Formatting characters are
// stripped first.
func IsValidCPF(cpf string) bool {
	digits := make([]int, 0, 11)
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 11 {
		return false
	}

	// All-same-digit CPFs pass the checksum but are invalid
	same := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}

	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += digits[i] * (n + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != digits[n] {
			return false
		}
	}
	return true
}

// TrimmedNonEmpty reports whether the string has content after trimming
// whitespace. Used for mandatory free-text fields such as cancellation
// justifications and chat messages.
func TrimmedNonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
