package handler

// jsonHTTPResponse is the body of every message-only response
type jsonHTTPResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}
