package tools

// Error codes shared by every tool implementation and the executor.
const (
	ErrValidation  = "validation_error"
	ErrNotFound    = "not_found"
	ErrDatabase    = "database_error"
	ErrUnknownTool = "unknown_tool"
	ErrExecution   = "execution_error"
	ErrUnknownPage = "unknown_page"
)

// Result is the uniform envelope every tool returns. Status is either
// "success" or "error"; Data is populated on success, Error/Message on
// failure. Tool failures are data, not transport errors.
type Result struct {
	Status  string         `json:"status"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

func Success(data map[string]any) *Result {
	return &Result{Status: "success", Data: data}
}

func Failure(code, message string) *Result {
	return &Result{Status: "error", Error: code, Message: message}
}

// IsSuccess reports whether the envelope carries a successful result.
func (r *Result) IsSuccess() bool { return r != nil && r.Status == "success" }
