package models

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// RetryableErrorResponse is returned when a transient failure can be retried
// by the client, such as the directory failing to load
type RetryableErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}
