package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAlertNotifier emails the ops address when the auth log flags
// suspicious activity. Delivery failures are logged and swallowed; alerting
// never breaks an auth flow.
type SESAlertNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	toAddress   string
	logger      *slog.Logger
}

// NewSESAlertNotifier creates an SES-backed notifier.
func NewSESAlertNotifier(region, fromAddress, toAddress string, logger *slog.Logger) (*SESAlertNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESAlertNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		toAddress:   toAddress,
		logger:      logger,
	}, nil
}

// NotifySuspiciousActivity sends a plain-text alert describing the detected
// pattern. detail is already masked by the auth log.
func (n *SESAlertNotifier) NotifySuspiciousActivity(ctx context.Context, kind, detail string) {
	subject := fmt.Sprintf("[mockify-auth] suspicious activity: %s", kind)
	body := fmt.Sprintf(
		"Suspicious authentication activity was detected.\n\nPattern: %s\nDetail: %s\nTime: %s\n\nThis is a heuristic alert; review the auth log before acting.\n",
		kind, detail, time.Now().UTC().Format(time.RFC3339),
	)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{n.toAddress},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := n.sesClient.SendEmail(ctx, input); err != nil {
		n.logger.Error("failed to send suspicious-activity alert",
			slog.String("kind", kind),
			slog.Any("error", err))
		return
	}

	n.logger.Info("suspicious-activity alert sent", slog.String("kind", kind))
}

// NoopAlertNotifier discards alerts. Used when alerting is not configured.
type NoopAlertNotifier struct{}

func (NoopAlertNotifier) NotifySuspiciousActivity(context.Context, string, string) {}
