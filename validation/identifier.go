package validation

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// IdentifierKind says which user field an identifier matches.
type IdentifierKind string

const (
	KindEmail IdentifierKind = "email"
	KindPhone IdentifierKind = "phone"
)

// Identifier is a parsed login identifier. Emails are lowercased and
// phones are in E.164 form.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ParseEmailOrPhone tries the input as an email address, then as an
// international phone number.
func ParseEmailOrPhone(input string) (Identifier, bool) {
	return ParseEmailOrPhoneIn(input, "")
}

// ParseEmailOrPhoneIn is [ParseEmailOrPhone] with a default region (for
// example "VN") used for numbers written without a country code. An empty
// region accepts only numbers with a leading '+'.
func ParseEmailOrPhoneIn(input, region string) (Identifier, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Identifier{}, false
	}

	if emailPattern.MatchString(input) {
		return Identifier{Kind: KindEmail, Value: strings.ToLower(input)}, true
	}

	num, err := phonenumbers.Parse(input, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return Identifier{}, false
	}
	return Identifier{Kind: KindPhone, Value: phonenumbers.Format(num, phonenumbers.E164)}, true
}
