package models

import (
	"fieldforce-backend/internal/roster"
)

// LoginRequest contains the credentials for authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate checks that login credentials are present.
func (r *LoginRequest) Validate() map[string]string {
	return Validate(r)
}

// AuthResponse is sent back after a successful login.
type AuthResponse struct {
	Token string         `json:"token"`
	User  roster.Profile `json:"user"`
}

// CreateUserRequest is used by admins to add a user.
type CreateUserRequest struct {
	Email              string             `json:"email" validate:"required,email"`
	Password           string             `json:"password" validate:"required,min=6"`
	DisplayName        string             `json:"displayName" validate:"required,max=120"`
	Role               roster.Role        `json:"role" validate:"required,oneof=MR ASM RM ZM ADMIN"`
	Status             roster.Status      `json:"status" validate:"required,oneof=TRAINEE CONFIRMED"`
	HQLocation         string             `json:"hqLocation" validate:"max=120"`
	State              string             `json:"state" validate:"max=60"`
	ReportingManagerID string             `json:"reportingManagerId"`
	Territories        []roster.Territory `json:"territories"`
	HQLat              *float64           `json:"hqLat" validate:"omitempty,gte=-90,lte=90"`
	HQLng              *float64           `json:"hqLng" validate:"omitempty,gte=-180,lte=180"`
}

func (r *CreateUserRequest) Validate() map[string]string {
	return Validate(r)
}

// UpdateUserRequest carries the fields an admin changes; omitted fields
// are kept. Version is the profile version the admin edited.
type UpdateUserRequest struct {
	Version            int64              `json:"version" validate:"gte=0"`
	DisplayName        *string            `json:"displayName" validate:"omitempty,min=1,max=120"`
	Role               *roster.Role       `json:"role" validate:"omitempty,oneof=MR ASM RM ZM ADMIN"`
	Status             *roster.Status     `json:"status" validate:"omitempty,oneof=TRAINEE CONFIRMED"`
	HQLocation         *string            `json:"hqLocation" validate:"omitempty,max=120"`
	State              *string            `json:"state" validate:"omitempty,max=60"`
	ReportingManagerID *string            `json:"reportingManagerId"`
	Territories        []roster.Territory `json:"territories"`
	HQLat              *float64           `json:"hqLat" validate:"omitempty,gte=-90,lte=90"`
	HQLng              *float64           `json:"hqLng" validate:"omitempty,gte=-180,lte=180"`
	Password           *string            `json:"password" validate:"omitempty,min=6"`
}

func (r *UpdateUserRequest) Validate() map[string]string {
	return Validate(r)
}
