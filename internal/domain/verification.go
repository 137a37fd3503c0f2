package domain

// Verification channels. Each is an independent axis on the user record.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

// ValidChannel reports whether s names a known verification channel.
func ValidChannel(s string) bool {
	return s == ChannelEmail || s == ChannelPhone
}

// VerificationCode is a one-time code outstanding for a (user, channel) pair.
// PK: user_id, SK: channel. At most one unconsumed, unexpired code exists per
// pair; issuing a new one replaces any prior row for the pair.
type VerificationCode struct {
	UserID     string `json:"user_id" dynamodbav:"user_id"`
	Channel    string `json:"channel" dynamodbav:"channel"`
	Code       string `json:"code" dynamodbav:"code"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"`             // Unix seconds
	VerifiedAt *int64 `json:"verified_at,omitempty" dynamodbav:"verified_at"` // set exactly once on consumption
	CreatedAt  int64  `json:"created_at" dynamodbav:"created_at"`
}

// VerificationState is a derived view over the user's verification attributes.
type VerificationState struct {
	EmailConfirmed            bool    `json:"email_confirmed"`
	PhoneConfirmed            bool    `json:"phone_confirmed"`
	EmailVerificationRequired bool    `json:"email_verification_required"`
	PhoneSkipped              bool    `json:"phone_skipped"`
	PhoneNumber               *string `json:"phone_number,omitempty"`
}

// Steps returned by the next-step decision for the frontend to route on.
const (
	StepEmailVerification = "email_verification"
	StepPhoneVerification = "phone_verification"
	StepProfileEdit       = "profile_edit"
)

// VerificationStats summarizes verification progress across all users.
type VerificationStats struct {
	TotalUsers    int `json:"total_users"`
	EmailVerified int `json:"email_verified"`
	EmailPending  int `json:"email_pending"`
	PhoneVerified int `json:"phone_verified"`
	PhoneAdded    int `json:"phone_added"`
	PendingCodes  int `json:"pending_codes"`
}
