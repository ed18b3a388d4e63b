package validation

import (
	"regexp"
	"unicode"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	fullnameRe = regexp.MustCompile(`^[A-Za-z\s\-']+$`)
	// tickers like AAPL, BRK.B, BTC
	symbolRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.\-]{0,15}$`)
)

const minPasswordLen = 8

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword wants minPasswordLen characters including a letter, a digit and a symbol.
func IsValidPassword(password string) bool {
	if len(password) < minPasswordLen {
		return false
	}
	var letter, digit, symbol bool
	for _, r := range password {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
		symbol = symbol || unicode.IsPunct(r) || unicode.IsSymbol(r)
	}
	return letter && digit && symbol
}

func IsValidFullname(fullname string) bool {
	return fullname != "" && fullnameRe.MatchString(fullname)
}

// IsValidSymbol accepts an instrument ticker of at most 16 characters.
func IsValidSymbol(symbol string) bool {
	return symbolRe.MatchString(symbol)
}
