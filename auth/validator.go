package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CredentialsRequest covers both register and login payloads.
// Username doubles as the display name, so it is kept short and plain.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=80"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func ValidateCredentials(req CredentialsRequest) error {
	return validate.Struct(req)
}
