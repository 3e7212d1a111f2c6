// Package notify speaks the LINE Messaging API through the official SDK:
// outbound pushes to customers, with per-tenant channel credentials
// overriding the system channel when configured.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/model"
)

// LineConfigStore resolves a tenant's own channel credentials.
type LineConfigStore interface {
	GetLineConfig(ctx context.Context, tenantID int64) (*model.TenantLineConfig, error)
}

// LineClient pushes messages through the LINE Messaging API. SDK clients are
// built lazily per channel token since tenants may bring their own channel.
type LineClient struct {
	systemToken string
	configs     LineConfigStore
	endpoint    string
	logger      *zap.Logger

	mu   sync.Mutex
	apis map[string]*messaging_api.MessagingApiAPI
}

func NewLineClient(systemToken string, configs LineConfigStore, logger *zap.Logger) *LineClient {
	return &LineClient{
		systemToken: systemToken,
		configs:     configs,
		logger:      logger,
		apis:        make(map[string]*messaging_api.MessagingApiAPI),
	}
}

// PushText sends a plain text message to one LINE user.
func (c *LineClient) PushText(ctx context.Context, tenantID int64, to, text string) error {
	return c.push(ctx, tenantID, to, []messaging_api.MessageInterface{
		messaging_api.TextMessage{Text: text},
	})
}

// PushFlex sends a flex message with a plain-text fallback.
func (c *LineClient) PushFlex(ctx context.Context, tenantID int64, to, altText string, contents json.RawMessage) error {
	container, err := messaging_api.UnmarshalFlexContainer(contents)
	if err != nil {
		return fmt.Errorf("decode flex container: %w", err)
	}
	return c.push(ctx, tenantID, to, []messaging_api.MessageInterface{
		messaging_api.FlexMessage{AltText: altText, Contents: container},
	})
}

func (c *LineClient) push(ctx context.Context, tenantID int64, to string, messages []messaging_api.MessageInterface) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	api, err := c.apiFor(ctx, tenantID)
	if err != nil {
		return err
	}

	if _, err := api.PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: messages,
	}, ""); err != nil {
		return fmt.Errorf("push message: %w", err)
	}

	c.logger.Debug("LINE message pushed",
		zap.Int64("tenant_id", tenantID),
		zap.String("to", to),
		zap.Int("messages", len(messages)),
	)

	return nil
}

// apiFor returns the SDK client for the tenant's channel when configured,
// the system channel otherwise.
func (c *LineClient) apiFor(ctx context.Context, tenantID int64) (*messaging_api.MessagingApiAPI, error) {
	token := c.systemToken
	if c.configs != nil {
		cfg, err := c.configs.GetLineConfig(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("resolve line credentials: %w", err)
		}
		if cfg != nil && cfg.ChannelAccessToken != "" {
			token = cfg.ChannelAccessToken
		}
	}
	if token == "" {
		return nil, fmt.Errorf("no LINE channel configured for tenant %d", tenantID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if api, ok := c.apis[token]; ok {
		return api, nil
	}

	opts := []messaging_api.MessagingApiAPIOption{}
	if c.endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(c.endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("build line client: %w", err)
	}
	c.apis[token] = api
	return api, nil
}
