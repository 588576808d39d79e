package repositories

import "errors"

// ErrNotFound is returned when a referenced record does not exist.
// gorm.ErrRecordNotFound is mapped to this at the repository boundary so
// callers never depend on the ORM directly.
var ErrNotFound = errors.New("record not found")
