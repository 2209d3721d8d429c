package common

import "time"

// dateLayouts are tried in fixed order; the first successful parse wins.
var dateLayouts = []string{"01/02/06", "2006-01-02", "01/02/2006"}

// NormalizeDate converts supported date formats to YYYY-MM-DD. Unparseable
// input is returned unchanged so the original value is never lost.
func NormalizeDate(dateStr string) string {
	if dateStr == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return dateStr
}
