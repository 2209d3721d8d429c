package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// placeholders are the schema tokens a model sometimes echoes back instead of
// extracted values.
var placeholders = map[string]struct{}{
	"string":     {},
	"integer":    {},
	"float":      {},
	"yyyy-mm-dd": {},
}

// StripPlaceholders recursively replaces string values equal (trimmed,
// case-insensitive) to a schema placeholder with the empty string.
func StripPlaceholders(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, vv := range t {
			t[k] = StripPlaceholders(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = StripPlaceholders(vv)
		}
		return t
	case string:
		if _, ok := placeholders[strings.ToLower(strings.TrimSpace(t))]; ok {
			return ""
		}
		return t
	}
	return v
}

// SanitizeRecordJSON
// - Renames known synonyms (sum of other_expanses -> other_expenses)
// - Strips placeholder echoes
// - Coerces numeric -> string for money fields and item fields to their declared types
// - Removes unknown keys
func SanitizeRecordJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite an existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms onto the canonical key set
	renamed("sum of other_expanses", "other_expenses")
	renamed("sum_of_other_expanses", "other_expenses")
	renamed("other_expanses", "other_expenses")
	renamed("shipping_fee", "other_expenses")
	renamed("shipping", "other_expenses")

	// 2) strip placeholder echoes before type coercion
	StripPlaceholders(m)

	// 3) coerce money fields to strings
	for _, k := range []string{"total_price", "other_expenses"} {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case float64:
				m[k] = fmt.Sprintf("%.2f", t)
			case string:
				m[k] = strings.TrimSpace(t)
			case nil:
				m[k] = ""
				dropped = append(dropped, k+"(null)")
			default:
				m[k] = ""
				dropped = append(dropped, k+"(type)")
			}
		}
	}

	// 4) coerce item fields to their declared types; drop malformed entries
	if items, ok := m["items"].([]any); ok {
		cleaned := make([]any, 0, len(items))
		for _, it := range items {
			im, ok := it.(map[string]any)
			if !ok {
				dropped = append(dropped, "items(entry)")
				continue
			}
			cleaned = append(cleaned, sanitizeItem(im, &dropped))
		}
		m["items"] = cleaned
	}

	// 5) remove unknown keys (everything outside the canonical schema)
	allowed := map[string]struct{}{
		"mail_thread_id": {}, "company_name": {}, "purchase_date": {},
		"mail_received_time": {}, "purchase_receiver": {}, "total_price": {},
		"other_expenses": {}, "items": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	// 6) trim obvious strings
	for _, k := range []string{"mail_thread_id", "company_name", "purchase_date", "mail_received_time", "purchase_receiver"} {
		if v, ok := m[k].(string); ok {
			m[k] = strings.TrimSpace(v)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizeItem(im map[string]any, dropped *[]string) map[string]any {
	out := map[string]any{"item_name": "", "quantity": 0, "price": 0.0}

	if v, ok := im["item_name"].(string); ok {
		out["item_name"] = strings.TrimSpace(v)
	}

	switch t := im["quantity"].(type) {
	case float64:
		out["quantity"] = int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			out["quantity"] = n
		} else if t != "" {
			*dropped = append(*dropped, "items.quantity")
		}
	}

	switch t := im["price"].(type) {
	case float64:
		out["price"] = t
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		s = strings.TrimPrefix(s, "$")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out["price"] = f
		} else if t != "" {
			*dropped = append(*dropped, "items.price")
		}
	}

	return out
}
