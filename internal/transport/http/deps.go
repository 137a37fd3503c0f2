package http

import (
	"github.com/go-registration-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-registration-api/internal/infrastructure/jwt"
	redisinfra "github.com/go-registration-api/internal/infrastructure/redis"
	s3infra "github.com/go-registration-api/internal/infrastructure/s3"
	"github.com/go-registration-api/internal/infrastructure/sms"
	"github.com/go-registration-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	CodeRepo    *dynamo.CodeRepo
	FieldRepo   *dynamo.FieldRepo
	UploadRepo  *dynamo.UploadRepo
	S3Store     *s3infra.Store
	Cooldowns   *redisinfra.CooldownCache
	Mailer      smtp.Mailer
	SMSProvider sms.Provider
	JWTProvider *jwtinfra.Provider
}
