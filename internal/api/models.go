package api

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// MessageResponse is the JSON body for successful mutations.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateFolderRequest asks for a new directory inside Path.
type CreateFolderRequest struct {
	Path       string `json:"path"`
	FolderName string `json:"foldername"`
}

// MoveRequest renames OldPath to NewPath, both root-relative.
type MoveRequest struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

// UploadResponse reports the outcome of an upload.
type UploadResponse struct {
	Message    string `json:"message"`
	Filename   string `json:"filename"`
	Location   string `json:"location"`
	UploadedBy string `json:"uploaded_by"`
	SHA512     string `json:"sha512,omitempty"`
	Skipped    bool   `json:"skipped"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
