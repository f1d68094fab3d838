package resolve

// DeriveSeed mixes a base seed with a context string into a new 64-bit
// seed. FNV-1a over the seed bytes and the context, followed by a
// splitmix64-style finalizer so nearby base seeds diverge completely.
func DeriveSeed(base uint64, context string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < 8; i++ {
		h ^= (base >> (8 * i)) & 0xFF
		h *= prime
	}
	for i := 0; i < len(context); i++ {
		h ^= uint64(context[i])
		h *= prime
	}

	h ^= h >> 30
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 31
	return h
}
