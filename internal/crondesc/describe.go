// Package crondesc renders cron expressions as English sentences.
package crondesc

import (
	"strings"
	"sync"

	lcron "github.com/lnquy/cron"
)

var (
	once       sync.Once
	descriptor *lcron.ExpressionDescriptor
)

// Describe returns a human-readable form of expr, e.g. "0 8 * * *" becomes
// "At 08:00". Unparsable expressions are returned unchanged.
func Describe(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}

	once.Do(func() {
		d, err := lcron.NewDescriptor(lcron.Use24HourTimeFormat(true))
		if err == nil {
			descriptor = d
		}
	})
	if descriptor == nil {
		return expr
	}

	desc, err := descriptor.ToDescription(expr, lcron.Locale_en)
	if err != nil || desc == "" {
		return expr
	}
	return desc
}
