package model

// User represents a row of the `users` table.  The json tags match the
// column names the API exposes; PasswordHash is never serialized.
//
// Fields:
//  ID           – users.userID, generated by the database.
//  Name         – users.userName.
//  LastName     – users.lastName.
//  Gender       – users.gender.
//  Age          – users.age.
//  Email        – users.emailAdd, unique and stored lower-cased.
//  PasswordHash – users.userPass, bcrypt hash.
type User struct {
	ID           int64  `json:"userID"`
	Name         string `json:"userName"`
	LastName     string `json:"lastName"`
	Gender       string `json:"gender"`
	Age          int    `json:"age"`
	Email        string `json:"emailAdd"`
	PasswordHash string `json:"-"`
}
