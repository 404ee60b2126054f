package readingbus

import (
	"encoding/json"

	"github.com/yanqian/aduba/internal/domain/reading"
)

// Message is the payload announced for every persisted reading.
type Message struct {
	UserID  string          `json:"user_id"`
	Reading reading.Reading `json:"reading"`
}

func encode(userID string, r reading.Reading) ([]byte, error) {
	return json.Marshal(Message{UserID: userID, Reading: r})
}
