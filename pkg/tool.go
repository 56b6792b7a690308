package pkg

// Contains reports whether val occurs in slice.
func Contains(slice []string, val string) bool {
	for i := range slice {
		if slice[i] == val {
			return true
		}
	}
	return false
}
