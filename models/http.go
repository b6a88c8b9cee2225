package models

// LoginRequest is the body of POST /api/user/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AddUserRequest is the body of POST /api/users.
// Only administrators may create users.
type AddUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// ProcessingRequest is the body of POST /api/processing/requests.
// It asks the worker pool to apply ToolName to the file at FileURI.
type ProcessingRequest struct {
	// FileURI is the content store address of the file to process.
	FileURI string `json:"file_uri"`

	// ContentType is the MIME type of the file. When empty the server
	// infers it from the file name.
	ContentType string `json:"content_type,omitempty"`

	// ToolName is the identifier of the tool to apply.
	ToolName string `json:"tool_name"`
}

// AddressResponse carries the content store address of a stored file.
type AddressResponse struct {
	URI string `json:"uri"`
}
