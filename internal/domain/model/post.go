package model

// Post is a car recommendation.
type Post struct {
	ID       int64              `json:"id"`
	Title    string             `json:"title"`
	Content  string             `json:"content"`
	CarModel string             `json:"car_model"`
	UserID   int64              `json:"user_id"`
	Comments []PersistedComment `json:"comments"`
}

type PostInput struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	CarModel string `json:"car_model" validate:"required"`
	UserID   int64  `json:"user_id" validate:"gte=0"`
}

// PostFilter narrows a post listing. Zero values mean no filter.
type PostFilter struct {
	UserID int64
}
