package response

type TestConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

type HealthResponse struct {
	Status   string               `json:"status"`
	Database TestConnectionResult `json:"database"`
}
