package utils

// ToStringSlice keeps the non-empty strings of a decoded JSON array and drops
// every other element.
func ToStringSlice(slice []any) []string {
	out := make([]string, 0, len(slice))
	for _, v := range slice {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
