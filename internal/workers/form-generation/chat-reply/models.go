package chatreply

type Input struct {
	Message string `json:"message"`
}

type Output struct {
	Reply   string `json:"reply"`
	Success bool   `json:"success"`
}
