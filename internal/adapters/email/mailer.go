package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"partyreminders/internal/domain"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerConfig holds configuration for creating a transport.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// sesAPI is the subset of the SES client the transport calls.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// NewMailer creates a transport from config. Provider "ses" uses AWS SES; "noop" uses a no-op transport.
// Any other provider is an error.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Transport, error) {
	switch config.Provider {
	case "ses":
		if config.FromAddress == "" {
			return nil, fmt.Errorf("ses mailer requires a from address")
		}
		sesConfig := config.SES
		if sesConfig.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is disabled for SES. Use only in development.")
		}
		httpClient := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: sesConfig.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
		awsCfg := aws.Config{
			Region: sesConfig.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					sesConfig.AccessKeyID,
					sesConfig.SecretAccessKey,
					"",
				),
			),
			HTTPClient: httpClient,
		}
		return newSESMailer(ses.NewFromConfig(awsCfg), config.FromAddress, config.FromName, logger), nil
	case "noop":
		logger.Warn("noop email provider: sends are logged and reported as delivered")
		return &noopMailer{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", config.Provider)
	}
}

type sesMailer struct {
	client      sesAPI
	fromAddress string
	fromName    string
	logger      *slog.Logger
	now         func() time.Time
}

func newSESMailer(client sesAPI, fromAddress, fromName string, logger *slog.Logger) *sesMailer {
	return &sesMailer{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *sesMailer) Send(ctx context.Context, to string, msg domain.RenderedNotification) (*domain.DeliveryReceipt, error) {
	source := s.fromAddress
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}
	if msg.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(msg.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if msg.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(msg.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return nil, classifySESError(ctx, to, err)
	}
	messageID := aws.ToString(result.MessageId)
	s.logger.DebugContext(ctx, "email sent via SES", "message_id", messageID)
	return &domain.DeliveryReceipt{MessageID: messageID, SentAt: s.now()}, nil
}

// SES error codes grouped by how they are reported.
var (
	sesRejectedCodes = map[string]struct{}{
		"MessageRejected":                        {},
		"MailFromDomainNotVerifiedException":     {},
		"ConfigurationSetDoesNotExist":           {},
		"ConfigurationSetSendingPausedException": {},
		"AccountSendingPausedException":          {},
		"AccessDenied":                           {},
	}
	sesUnavailableCodes = map[string]struct{}{
		"Throttling":          {},
		"ThrottlingException": {},
		"ServiceUnavailable":  {},
		"InternalFailure":     {},
		"RequestTimeout":      {},
	}
)

// classifySESError maps an SES or network error onto the transport error taxonomy.
// to is the destination of the failed send.
func classifySESError(ctx context.Context, to string, err error) *domain.TransportError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewTransportError(domain.ProviderUnavailable, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if _, ok := sesRejectedCodes[code]; ok {
			return domain.NewTransportError(domain.ProviderRejected, err)
		}
		if _, ok := sesUnavailableCodes[code]; ok {
			return domain.NewTransportError(domain.ProviderUnavailable, err)
		}
		if code == "InvalidParameterValue" {
			if mentionsDestination(apiErr.ErrorMessage(), to) {
				return domain.NewTransportError(domain.InvalidAddress, err)
			}
			return domain.NewTransportError(domain.ProviderRejected, err)
		}
	}
	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) && statusErr.HTTPStatusCode() >= http.StatusInternalServerError {
		return domain.NewTransportError(domain.ProviderUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewTransportError(domain.ProviderUnavailable, err)
	}
	return domain.NewTransportError(domain.UnknownTransport, err)
}

// mentionsDestination reports whether an InvalidParameterValue message is about the
// recipient rather than the sender or the message.
func mentionsDestination(msg, to string) bool {
	msg = strings.ToLower(msg)
	if to != "" && strings.Contains(msg, strings.ToLower(to)) {
		return true
	}
	for _, hint := range []string{"destination", "recipient", "toaddresses"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, to string, msg domain.RenderedNotification) (*domain.DeliveryReceipt, error) {
	n.logger.InfoContext(ctx, "email would be sent (noop)", "to", domain.RedactAddress(to), "subject", msg.Subject)
	return &domain.DeliveryReceipt{MessageID: "noop-" + uuid.NewString(), SentAt: time.Now()}, nil
}
