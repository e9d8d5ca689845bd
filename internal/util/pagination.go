package util

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// Calculate normalizes page/size query values into an offset/limit pair.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	from = (page - 1) * size
	return from, size
}

func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
