package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize clamps page to at least 1 and size to (0, MaxPageSize].
func Normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

func Calculate(page, size int) (from, limit int) {
	page, size = Normalize(page, size)
	from = (page - 1) * size
	return from, size
}
