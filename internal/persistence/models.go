package persistence

import "time"

// Notification is one message addressed to a single user account.
type Notification struct {
	ID          string
	UserID      string
	ClassID     string
	Type        string
	Title       string
	Message     string
	RelatedID   string
	RelatedType string
	IsRead      bool
	CreatedAt   time.Time
}

// Subject is a catalog entry taught to one or more classes.
type Subject struct {
	ID   string
	Code string
	Name string
}

// Teacher is a staff member who may teach or invigilate.
type Teacher struct {
	ID     string
	UserID string
	Name   string
}

// Student links a user account to the class it attends.
type Student struct {
	ID      string
	UserID  string
	ClassID string
	Name    string
}
