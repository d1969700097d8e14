package server

// PutRequest represents the request body for storing a value
type PutRequest struct {
	Value *string `json:"value" binding:"required"`
}

// GetResponse represents the response body for a cache hit
type GetResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ListKeysResponse lists keys from most to least recently used
type ListKeysResponse struct {
	Keys     []string `json:"keys"`
	Size     int      `json:"size"`
	Capacity int      `json:"capacity"`
}
