package utils

import (
	"sort"
	"strings"

	"github.com/gofrs/uuid"
)

var recordNamespace = uuid.Must(uuid.FromString("6f1c7c1e-4d0e-5b8a-9a57-2f3c1d9b0e41"))

// GenUuidFromStrings returns a name based uuid that only depends on the set
// of parts, not on their order.
func GenUuidFromStrings(parts ...string) string {
	if len(parts) == 0 {
		return uuid.Nil.String()
	}

	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)

	return uuid.NewV5(recordNamespace, strings.Join(sorted, "\x00")).String()
}

// NormalizeRef trims a transaction reference or address supplied by a client.
func NormalizeRef(s string) string {
	return strings.TrimSpace(s)
}
