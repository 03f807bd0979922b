package ports

// IdempotencyStore maps client supplied keys to the id of the resource they
// created.
type IdempotencyStore interface {
	// Get returns the id stored for the key, or an empty string.
	Get(key string) (string, error)
	// PutIfAbsent stores the id for the key unless one is already stored, and
	// returns the stored one.
	PutIfAbsent(key, id string) (string, error)
	Close() error
}
