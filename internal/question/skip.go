package question

import "regexp"

// skipPattern matches fields the board pre-fills from the profile. Overwriting them is harmful.
var skipPattern = regexp.MustCompile(`\b(` +
	`e-?mail|email address|` +
	`phone|phone number|mobile|mobile phone|cell|cellphone|` +
	`country code|calling code|phone prefix|prefix|` +
	`first name|last name|full name|given name|family name|surname|` +
	`contact info|contact information|` +
	`e-?mail-?adresse|telefon|telefonnummer|handy|handynummer|mobilnummer|` +
	`landesvorwahl|vorwahl|vorname|nachname|vollstandiger name|` +
	`kontaktinformation|kontaktinformationen|kontaktdaten` +
	`)\b`)

// ShouldSkip reports whether a field label belongs to the skip set.
func ShouldSkip(label string) bool {
	return skipPattern.MatchString(Fold(label))
}
