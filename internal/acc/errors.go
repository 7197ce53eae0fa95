package acc

import "fmt"

// ApiError is any non-2xx response from a resource call. The raw response
// body is kept verbatim: the remote API's own error payload is the most
// useful diagnostic and must not be reformatted away.
type ApiError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Body)
}

// UpdateError is a non-2xx response from the item PATCH, carrying the raw
// response body.
type UpdateError struct {
	ItemID     string
	StatusCode int
	Body       string
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update item %s failed (%d): %s", e.ItemID, e.StatusCode, e.Body)
}
