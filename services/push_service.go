package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"proteinid/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/hashicorp/go-hclog"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrPushDisabled    = errors.New("push notifications are not configured")
)

// Notifier delivers a best-effort message to every enabled device of a
// user and reports how many devices accepted it.
type Notifier interface {
	PushToUser(ctx context.Context, userID, title, body string, data map[string]string) int
}

type SNSAPI interface {
	CreatePlatformEndpoint(ctx context.Context, params *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, params *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

type PushService struct {
	devices        DeviceStore
	sns            SNSAPI
	fcmPlatformArn string
	log            hclog.Logger
}

func NewPushService(devices DeviceStore, client SNSAPI, fcmPlatformArn string, log hclog.Logger) *PushService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &PushService{
		devices:        devices,
		sns:            client,
		fcmPlatformArn: fcmPlatformArn,
		log:            log.Named("push"),
	}
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

// Both platforms go through the FCM application.
func (p *PushService) platformArn(platform string) (string, error) {
	switch strings.ToLower(platform) {
	case "android", "ios":
		if p.fcmPlatformArn == "" || p.sns == nil {
			return "", ErrPushDisabled
		}
		return p.fcmPlatformArn, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
}

// RegisterDevice creates the SNS endpoint for a device token. Registering
// the same token again refreshes the stored endpoint.
func (p *PushService) RegisterDevice(ctx context.Context, userID, platform, token string) (*models.UserDevice, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: device token is required", ErrValidation)
	}
	appArn, err := p.platformArn(platform)
	if err != nil {
		return nil, err
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, fmt.Errorf("create platform endpoint: %w", err)
	}

	hash := tokenHash(token)
	dev, err := p.devices.DeviceByToken(ctx, userID, hash)
	switch {
	case errors.Is(err, ErrNotFound):
		dev = &models.UserDevice{UserID: userID, TokenHash: hash, Enabled: true}
	case err != nil:
		return nil, err
	}
	dev.Platform = strings.ToLower(platform)
	dev.EndpointARN = aws.ToString(out.EndpointArn)
	if err := p.devices.SaveDevice(ctx, dev); err != nil {
		return nil, err
	}
	return dev, nil
}

func (p *PushService) SetNotifications(ctx context.Context, userID string, enabled bool) error {
	return p.devices.SetDevicesEnabled(ctx, userID, enabled)
}

func (p *PushService) PushToUser(ctx context.Context, userID, title, body string, data map[string]string) int {
	if p.sns == nil {
		return 0
	}
	endpoints, err := p.devices.EnabledDevices(ctx, userID)
	if err != nil {
		p.log.Warn("load devices failed", "user_id", userID, "error", err)
		return 0
	}
	if len(endpoints) == 0 {
		return 0
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
		"data": data,
	})
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})

	sent := 0
	for _, d := range endpoints {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			p.log.Warn("publish failed", "user_id", userID, "endpoint", d.EndpointARN, "error", err)
			continue
		}
		sent++
	}
	return sent
}
