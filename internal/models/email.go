package models

import "strings"

// NormalizeEmail strips dots and any "+tag" segment from the local part of
// an address. The domain is left as is.
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	local, domain := email[:at], email[at:]
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	return strings.ReplaceAll(local, ".", "") + domain
}
