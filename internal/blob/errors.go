package blob

import "fmt"

// NotFoundError indicates the requested key does not exist.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob %q not found", e.Key)
}

// ExistsError indicates a create-only Put hit an existing key.
type ExistsError struct {
	Key string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("blob %q already exists", e.Key)
}
