package dto

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

// CreateUserRequest provisions an operator account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,min=1,max=200"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=admin scheduler viewer"`
}

// UpdateUserRequest edits an operator account.
type UpdateUserRequest struct {
	FullName string `json:"fullName" validate:"required,min=1,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin scheduler viewer"`
	Active   *bool  `json:"active"`
}
