package generic

// Void is an empty type, for when a type parameter is required but no value
// is meaningful (e.g. set members, error-only results).
type Void = struct{}

// NewVoid constructs the Void value.
func NewVoid() Void {
	return Void{}
}
