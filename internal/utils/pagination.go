package utils

import "strconv"

const (
	DEFAULT_PAGE_SIZE = 20
	MAX_PAGE_SIZE     = 100
)

// ParsePage safely converts query values to positive page numbers.
func ParsePage(value string, defaultVal int) int {
	if value == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(value); err == nil && v > 0 {
		return v
	}
	return defaultVal
}

// ParsePageSize is ParsePage capped at MAX_PAGE_SIZE.
func ParsePageSize(value string, defaultVal int) int {
	size := ParsePage(value, defaultVal)
	if size > MAX_PAGE_SIZE {
		return MAX_PAGE_SIZE
	}
	return size
}
