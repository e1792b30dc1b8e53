package dto

// Credentials is the register / login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// LoginResponse carries either a token (OTP disabled) or a challenge id.
type LoginResponse struct {
	Token       string `json:"token,omitempty"`
	ChallengeID string `json:"challengeId,omitempty"`
}

type OTPVerifyForm struct {
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
}

type OTPResendForm struct {
	ChallengeID string `json:"challengeId"`
}

type ForgotPasswordForm struct {
	Email string `json:"email"`
}

type ResetPasswordForm struct {
	Password string `json:"password"`
}

// ShopForm creates a shop or replaces its profile. Pointer fields left nil on
// update keep their stored value.
type ShopForm struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	OpeningTime *string  `json:"openingTime"`
	ClosingTime *string  `json:"closingTime"`
	TownVillage string   `json:"townVillage"`
	Mandal      string   `json:"mandal"`
	District    string   `json:"district"`
	State       string   `json:"state"`
}

type LocationForm struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type StatusForm struct {
	IsOpen *bool `json:"is_open"`
}

type ProductForm struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	CategoryID  *int64   `json:"categoryId"`
	Price       *float64 `json:"price"`
	IsAvailable *bool    `json:"isAvailable"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
}

type AvailabilityForm struct {
	IsAvailable *bool `json:"is_available"`
}

type CategoryForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
