package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-registration-api/internal/application/field"
	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-registration-api/internal/infrastructure/jwt"
	redisinfra "github.com/go-registration-api/internal/infrastructure/redis"
	s3infra "github.com/go-registration-api/internal/infrastructure/s3"
	"github.com/go-registration-api/internal/infrastructure/sms"
	"github.com/go-registration-api/internal/infrastructure/smtp"
	transporthttp "github.com/go-registration-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// Redis for resend-cooldown markers.
	redisClient, err := redisinfra.NewClient(cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	cooldowns := redisinfra.NewCooldownCache(redisClient)

	// S3 store for file-type field values.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// Outbound transports.
	mailer := smtp.NewMailer(cfg)
	smsProvider, err := sms.NewProvider(cfg)
	if err != nil {
		log.Printf("WARN: SMS provider %q not available, using mock: %v", cfg.SMSProvider, err)
		smsProvider = sms.NewMock()
	}

	codeRepo := dynamo.NewCodeRepo(dynamoClient, cfg.DynamoTables.VerificationCodes)
	fieldRepo := dynamo.NewFieldRepo(dynamoClient, cfg.DynamoTables.FieldDefinitions)

	// Seed the default field set on first boot.
	if err := field.NewService(fieldRepo).Seed(context.Background()); err != nil {
		log.Fatalf("seed field registry: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		CodeRepo:    codeRepo,
		FieldRepo:   fieldRepo,
		UploadRepo:  dynamo.NewUploadRepo(dynamoClient, cfg.DynamoTables.Uploads),
		S3Store:     s3Store,
		Cooldowns:   cooldowns,
		Mailer:      mailer,
		SMSProvider: smsProvider,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	// Periodic cleanup of expired verification codes. The TTL attribute on the
	// table is the backstop; this keeps pending-code stats honest in between.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if err := codeRepo.SweepExpired(sweepCtx); err != nil {
					log.Printf("WARN: sweep expired codes: %v", err)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
