// Package dto provides data transfer objects for the user HTTP layer.
package dto

// RegisterUserRequest represents the API request for user registration.
// Field rules are enforced by the use case.
type RegisterUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	MasterKey string `json:"master_key"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
