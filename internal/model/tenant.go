package model

import "time"

type Tenant struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	RequiresApproval bool      `json:"requires_approval"` // new bookings wait for staff review
	CreatedAt        time.Time `json:"created_at"`
}

// TenantLineConfig holds a tenant's own LINE channel credentials.
// Tenants without a row fall back to the system channel.
type TenantLineConfig struct {
	TenantID           int64  `json:"tenant_id"`
	ChannelID          string `json:"channel_id"`
	ChannelSecret      string `json:"channel_secret"`
	ChannelAccessToken string `json:"channel_access_token"`
	BotBasicID         string `json:"bot_basic_id"`
}
