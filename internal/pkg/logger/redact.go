package logger

import "strings"

// RedactEmail keeps just enough of an address to correlate log lines: the
// first two characters of the local part plus the domain. Local parts of two
// characters or fewer, and anything that is not a plausible address, mask
// entirely.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}
