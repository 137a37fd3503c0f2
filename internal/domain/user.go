package domain

import "time"

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Attribute keys owned by the verification engine. They live on the user row
// so the verification state can be derived without a join.
const (
	AttrEmailConfirmed            = "email_confirmed"
	AttrPhoneConfirmed            = "phone_confirmed"
	AttrEmailVerificationRequired = "email_verification_required"
	AttrPhoneSkipped              = "phone_skipped"
	AttrPhone                     = "phone"
)

type User struct {
	UserID       string  `json:"id" dynamodbav:"user_id"`
	Username     string  `json:"username" dynamodbav:"username"`
	Email        string  `json:"email" dynamodbav:"email"`
	Phone        *string `json:"phone" dynamodbav:"phone"`
	PasswordHash string  `json:"-" dynamodbav:"password_hash"`
	Role         string  `json:"role" dynamodbav:"role"`
	FirstName    string  `json:"first_name" dynamodbav:"first_name"`
	LastName     string  `json:"last_name" dynamodbav:"last_name"`

	// Verification axes, mutated only by the verification engine.
	EmailConfirmed            bool `json:"email_confirmed" dynamodbav:"email_confirmed"`
	PhoneConfirmed            bool `json:"phone_confirmed" dynamodbav:"phone_confirmed"`
	EmailVerificationRequired bool `json:"email_verification_required" dynamodbav:"email_verification_required"`
	PhoneSkipped              bool `json:"phone_skipped" dynamodbav:"phone_skipped"`

	// Attributes holds custom registry-field values keyed by field name.
	Attributes map[string]string `json:"attributes,omitempty" dynamodbav:"attributes"`

	Enable    int        `json:"enable" dynamodbav:"enable"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// DisplayName is what outbound messages address the user by.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

type CreateUserRequest struct {
	Username  string  `json:"username" validate:"required"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`

	// Fields carries values for custom registry fields, validated and
	// sanitized against the field registry before being stored.
	Fields map[string]string `json:"fields"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`

	Fields map[string]string `json:"fields"`
}

// Actor identifies the caller of a privileged operation. It is threaded
// explicitly through service calls; the core never reads ambient session state.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
