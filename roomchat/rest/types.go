package rest

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"active_rooms"`
}

// Healthy reports whether the server described itself as healthy.
func (h HealthResponse) Healthy() bool { return h.Status == "healthy" }

// RoomsResponse is returned by GET /rooms. Only rooms with at least one
// connected user are listed.
type RoomsResponse struct {
	Rooms []string `json:"rooms"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (e ErrorResponse) message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Detail
}
