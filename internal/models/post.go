package models

import "strings"

const (
	BoardsCollection      = "Boards"
	CommunitiesCollection = "Communities"
)

// PostCollections are the collections holding user listings.
var PostCollections = []string{BoardsCollection, CommunitiesCollection}

// Post is a Boards or Communities document.
type Post struct {
	ID           string `bson:"_id" json:"id"`
	AuthorID     string `bson:"authorId" json:"authorId"`
	Title        string `bson:"title" json:"title"`
	CommentCount int    `bson:"commentCount" json:"commentCount"`
	Status       string `bson:"status" json:"status"`
}

// CollectionForType maps a post type as it appears in notifications and
// deep links ("board", "communities", "Boards", ...) to its collection.
func CollectionForType(postType string) (string, bool) {
	switch strings.ToLower(postType) {
	case "board", "boards":
		return BoardsCollection, true
	case "community", "communities":
		return CommunitiesCollection, true
	}
	return "", false
}

// IsPostCollection reports whether name is one of PostCollections.
func IsPostCollection(name string) bool {
	for _, c := range PostCollections {
		if c == name {
			return true
		}
	}
	return false
}

// CommentRef is the part of a Comments or Replies document that points at
// the post whose commentCount it contributes to.
type CommentRef struct {
	ID             string `bson:"_id,omitempty" json:"id,omitempty"`
	PostCollection string `bson:"postCollection" json:"postCollection"`
	PostID         string `bson:"postId" json:"postId"`
}
