package views

// Resolve returns the value of the first alias present in the field
// mapping, in alias order. Presence means the key exists, not that its
// value is truthy: a price of 0 or an empty string still wins over later
// aliases. The second return is false only when none of the aliases are
// keys in the mapping.
func Resolve(fields map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, name := range aliases {
		if v, ok := fields[name]; ok {
			return v, true
		}
	}
	return nil, false
}
