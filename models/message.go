package models

import "time"

// CommunityMessage holds one entry of the community chat log
type CommunityMessage struct {
	User      User      `bson:"user" json:"user"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
