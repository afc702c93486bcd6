package http

// StatusSuccess and StatusError are the values of the "status" member of every JSON body.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorBody is the error envelope written for every failed request.
type ErrorBody struct {
	Error  string `json:"error" example:"Missing required field: days_left"`
	Status string `json:"status" example:"error"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string `json:"field,omitempty" example:"origin"`
	Message string `json:"message,omitempty" example:"origin is required"`
}
