// Package common contains shared constants and sentinel errors used across
// swappy components.
package common

// InitDataHeaderName is the HTTP header the mini-app uses to hand its signed
// init-data over to the backend.
const InitDataHeaderName = "X-Telegram-Init-Data"

// WebhookSecretHeaderName carries the secret token Telegram echoes back on
// every webhook delivery.
const WebhookSecretHeaderName = "X-Telegram-Bot-Api-Secret-Token"

// TargetGroupKey is the value-store key holding the id of the group ads are
// posted into.
const TargetGroupKey = "target_group"

// DefaultInitDataMaxAge is the freshness window applied to mini-app init-data
// unless configured otherwise, in seconds.
const DefaultInitDataMaxAge = 1800
