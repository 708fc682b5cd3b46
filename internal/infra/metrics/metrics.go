// File: internal/infra/metrics/metrics.go
package metrics

import "strings"

// norm keeps label cardinality bounded and casing consistent.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
