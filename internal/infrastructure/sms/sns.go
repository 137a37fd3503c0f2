package sms

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
)

// SNS sends SMS messages via AWS SNS.
type SNS struct {
	client *sns.Client
}

func NewSNS(cfg *config.Config) (*SNS, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SNS: %w", domain.ErrConfig)
	}
	return &SNS{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *SNS) Name() string { return "sns" }

func (s *SNS) Send(ctx context.Context, to, body string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &body,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %v: %w", err, domain.ErrDelivery)
	}
	return nil
}
