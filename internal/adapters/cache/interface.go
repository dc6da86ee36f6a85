package cache

type hitResult[T any] struct {
	data    T
	valid   bool
	claimed bool
}

// Cache is a keyed store where one caller claims a missing key and fills it while the others wait
type Cache[T any] interface {
	getOrClaim(key string) hitResult[T]
	set(key string, data T)
	delete(key string)
	wait()
}
