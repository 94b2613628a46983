package services

import (
	"fmt"
	"time"
)

// FormatCurrency renders a monetary value with its currency code.
func FormatCurrency(value float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %.2f", currency, value)
}

// FormatRelativeDate renders t relative to now ("today", "3d ago", "in 2d").
func FormatRelativeDate(t, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days > 1:
		return fmt.Sprintf("%dd ago", days)
	case days == -1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %dd", -days)
	}
}

// FormatFileSize renders a byte count in human units.
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
