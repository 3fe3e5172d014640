package tracker

import "time"

// SubscriptionFeeAED is the monthly fee shown on the driver profile
const SubscriptionFeeAED = 3

// User is the driver profile handed to callers. It never carries the password.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CarSideNumber string `json:"carSideNumber"`
	MobileNumber  string `json:"mobileNumber"`
	IsSubscribed  bool   `json:"isSubscribed"`
}

// UserRecord is the stored form of a user
type UserRecord struct {
	User
	PasswordHash string    `json:"passwordHash"` // bcrypt
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest carries the registration form
type RegisterRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CarSideNumber   string `json:"carSideNumber"`
	MobileNumber    string `json:"mobileNumber"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Session is the context of one logged-in driver, from login until logout or expiry
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
