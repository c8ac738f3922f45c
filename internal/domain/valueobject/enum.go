package valueobject

// parseEnum looks s up in a value-object table, returning a kinded
// InvalidInput error naming the enum on a miss.
func parseEnum[T any](values map[string]T, name, s string) (T, error) {
	v, ok := values[s]
	if !ok {
		var zero T
		return zero, InvalidInput("invalid %s: %q", name, s)
	}
	return v, nil
}
