package models

import "time"

type Comment struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId,omitempty"`
	VideoID   string    `json:"videoId"`
	Desc      string    `json:"desc"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewComment is the body of a create-comment request.
type NewComment struct {
	Desc    string `json:"desc"`
	VideoID string `json:"videoId"`
}

type User struct {
	ID   string `json:"_id" toml:"id"`
	Name string `json:"name" toml:"name"`
	Img  string `json:"img,omitempty" toml:"img"`
}
