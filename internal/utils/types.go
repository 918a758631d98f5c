package utils

func ToStringPtr(s string) *string {
	return &s
}

// OptionalStringPtr returns nil for the empty string.
func OptionalStringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
