package models

import (
	"fmt"
	"time"
)

// QuotaPerUnit is the backend's quota-to-dollar conversion rate.
const QuotaPerUnit = 500000

// RenderQuota formats a raw quota value as a dollar amount.
func RenderQuota(quota int64) string {
	return fmt.Sprintf("$%.2f", float64(quota)/QuotaPerUnit)
}

// RenderNumber formats large counters with a compact suffix.
func RenderNumber(n int) string {
	switch {
	case n >= 1000000:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	case n >= 10000:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// RenderTimestamp formats a Unix timestamp for table output.
// Zero renders as "never": the backend sends 0 for accounts that have not
// issued a request yet.
func RenderTimestamp(ts int64) string {
	if ts == 0 {
		return "never"
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}
