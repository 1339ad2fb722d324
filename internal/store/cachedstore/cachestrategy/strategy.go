// Package cachestrategy defines cache eviction strategy interfaces.
package cachestrategy

// Key identifies one block of one object.
type Key struct {
	Name  string
	Block uint64
}

// Strategy defines the interface for cache eviction strategies.
type Strategy interface {
	Get(key Key) ([]byte, bool)
	Add(key Key, value []byte) bool
	Len() int
}
