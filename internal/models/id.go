package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-character hex document id.
func NewID() string { return primitive.NewObjectID().Hex() }

// ValidID reports whether s is a well-formed 24-character hex id.
func ValidID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
