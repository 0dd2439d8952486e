package models

// User is a banking demo user. The ID is assigned once at signup and never
// changes; it doubles as the login identifier at the identity provider
// (emails can change, IDs cannot).
type User struct {
	ID      string `bson:"_id" json:"id"`
	Email   string `bson:"email" json:"email"`
	Name    string `bson:"name" json:"name"`
	Balance int64  `bson:"balance" json:"balance"`
}

// MeInfo is the public projection of a User returned at sign-in.
type MeInfo struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// SignUpExtra is the caller-defined payload carried in the signUp request
// alongside the credentials.
type SignUpExtra struct {
	DisplayName string `json:"displayName"`
}
