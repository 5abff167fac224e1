package httpapi

// registerUserRequest is the body of POST /users.
type registerUserRequest struct {
	UserID uint32 `json:"user_id"`
	Name   string `json:"name"`
}

// renameUserRequest is the body of PUT /users.
type renameUserRequest struct {
	UserID  uint32 `json:"user_id"`
	NewName string `json:"new_name"`
}

// messageResponse is returned on a successful write.
type messageResponse struct {
	Message string `json:"message"`
}

// userResponse is returned for a single-user read.
type userResponse struct {
	ID        uint32 `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// errorResponse is returned on any AppError.
type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse is returned by GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
}

// dlqEntryResponse is one row of GET /internal/dlq.
type dlqEntryResponse struct {
	AggregateID  string `json:"aggregate_id"`
	EventType    string `json:"event_type"`
	ErrorMessage string `json:"error_message"`
	FailureCount int    `json:"failure_count"`
	LastFailedAt int64  `json:"last_failed_at_unix_ms"`
}
