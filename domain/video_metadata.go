package domain

import (
	"errors"
	"time"
)

// Tag is a tag attached to a video in the catalog store.
type Tag struct {
	TagID   int    `json:"tagId"`
	TagName string `json:"tagName"`
}

// Category is a node in the category hierarchy.
type Category struct {
	CategoryID   int    `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// User is the owning user of a video.
type User struct {
	UserID   int    `json:"userId"`
	UserName string `json:"userName"`
}

// VideoMetadata is the catalog aggregate owned by the relational store.
// This service never mutates it; it only serializes it into sync messages
// and projects it into index documents.
type VideoMetadata struct {
	VideoID          int       `json:"videoId"`
	VideoName        string    `json:"videoName"`
	VideoDescription string    `json:"videoDescription"`
	VideoURL         string    `json:"videoUrl"`
	VideoTags        []Tag     `json:"videoTags,omitempty"`
	Category         *Category `json:"category,omitempty"`
	User             User      `json:"user"`
	VideoUploadDate  time.Time `json:"videoUploadDate"`
	VideoUpdatedDate time.Time `json:"videoUpdatedDate"`
}

// Validate checks the fields the indexing pipeline depends on.
func (v *VideoMetadata) Validate() error {
	if v.VideoID <= 0 {
		return errors.New("video ID must be positive")
	}
	if v.VideoName == "" {
		return errors.New("video name cannot be empty")
	}
	return nil
}

// TagNames returns the denormalized tag name list.
func (v *VideoMetadata) TagNames() []string {
	names := make([]string, 0, len(v.VideoTags))
	for _, t := range v.VideoTags {
		names = append(names, t.TagName)
	}
	return names
}
