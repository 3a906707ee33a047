package models

import "time"

// Movie represents a catalog entry. Poster holds the storage-relative
// path on disk; handlers rewrite it to an absolute URL before responding.
type Movie struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	PublishingYear int       `json:"publishingYear"`
	Poster         string    `json:"poster"`
	UserID         string    `json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
}
