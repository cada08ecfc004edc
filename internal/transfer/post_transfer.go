package transfer

type PostStats struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Sent      int `json:"sent"`
}
