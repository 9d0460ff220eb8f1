package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleCitizen   = "citizen"
	RoleMunicipal = "municipal"
)

type User struct {
	ID                   bson.ObjectID `json:"_id,omitempty"  bson:"_id,omitempty"`
	UserID               string        `json:"user_id,omitempty" bson:"user_id"`
	FirstName            string        `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName             string        `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Email                string        `json:"email,omitempty" bson:"email,omitempty"`
	Phone                string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Password             string        `json:"-" bson:"password,omitempty"`
	Role                 string        `json:"role,omitempty" bson:"role,omitempty"`
	CreatedAt            time.Time     `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt            time.Time     `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
	OTPHash              string        `json:"-" bson:"otp_hash,omitempty"`
	OTPExpires           time.Time     `json:"-" bson:"otp_expires,omitempty"`
	PasswordResetToken   string        `json:"-" bson:"password_reset_token,omitempty"`
	PasswordTokenExpired time.Time     `json:"-" bson:"password_token_expired,omitempty"`
}

// DisplayName is what issue lists show as the reporter.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" || u.LastName != "":
		if u.LastName == "" {
			return u.FirstName
		}
		return u.FirstName + " " + u.LastName
	case u.Phone != "":
		return u.Phone
	default:
		return "Anonymous User"
	}
}

type StaffRegistration struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6,max=64"`
	SignupCode string `json:"signup_code" validate:"required"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"email,required"`
	Password string `json:"password" validate:"required"`
}

type OTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type OTPVerification struct {
	Phone     string `json:"phone" validate:"required,e164"`
	Code      string `json:"code" validate:"required,len=6,numeric"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserResponse struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	Token     string `json:"token"`
}

type PasswordUpdate struct {
	NewPassword     string `json:"new_password" validate:"required,min=6,max=64"`
	CurrentPassword string `json:"current_password" validate:"required"`
}
