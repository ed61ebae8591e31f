package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// VideoCursor points just past the last video of a page in
// (created_at desc, id desc) order.
type VideoCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        int64     `json:"id"`
}

func EncodeVideoCursor(createdAt time.Time, id int64) (string, error) {
	b, err := json.Marshal(VideoCursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeVideoCursor(cursor string) (VideoCursor, error) {
	if cursor == "" {
		return VideoCursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return VideoCursor{}, ErrInvalidCursor
	}

	var c VideoCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return VideoCursor{}, ErrInvalidCursor
	}
	if c.ID <= 0 || c.CreatedAt.IsZero() {
		return VideoCursor{}, ErrInvalidCursor
	}
	return c, nil
}
