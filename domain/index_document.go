package domain

import (
	"strconv"
	"time"
)

// IndexDocument is the denormalized search index projection of a video.
// The document id equals the video id, so re-indexing the same video
// overwrites instead of duplicating. That upsert-by-id property is what
// keeps consumer retries safe under at-least-once delivery.
type IndexDocument struct {
	VideoID          int       `json:"videoId"`
	VideoName        string    `json:"videoName"`
	VideoDescription string    `json:"videoDescription"`
	VideoURL         string    `json:"videoUrl"`
	VideoTagNames    []string  `json:"videoTagNames"`
	CategoryName     string    `json:"categoryName"`
	UserName         string    `json:"userName"`
	VideoUploadDate  time.Time `json:"videoUploadDate"`
	VideoUpdatedDate time.Time `json:"videoUpdatedDate"`
}

// NewIndexDocument projects a catalog aggregate into its index document.
// Tag, category and user references are flattened to plain strings; a nil
// category projects to an empty name.
func NewIndexDocument(v *VideoMetadata) IndexDocument {
	doc := IndexDocument{
		VideoID:          v.VideoID,
		VideoName:        v.VideoName,
		VideoDescription: v.VideoDescription,
		VideoURL:         v.VideoURL,
		VideoTagNames:    v.TagNames(),
		UserName:         v.User.UserName,
		VideoUploadDate:  v.VideoUploadDate,
		VideoUpdatedDate: v.VideoUpdatedDate,
	}
	if v.Category != nil {
		doc.CategoryName = v.Category.CategoryName
	}
	return doc
}

// DocumentID returns the index document id for this video.
func (d IndexDocument) DocumentID() string {
	return strconv.Itoa(d.VideoID)
}
