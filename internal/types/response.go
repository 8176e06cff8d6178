package types

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func OK(message string, data interface{}) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

func Error(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}

// ValidationError carries one or more field-level messages alongside the
// summary message.
func ValidationError(message string, errs []string) APIResponse {
	return APIResponse{Success: false, Message: message, Errors: errs}
}
