package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlockSignal(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		signal  string
		blocked bool
	}{
		{
			name:    "cloudflare interstitial",
			markup:  "<title>Just a moment...</title>",
			signal:  "just a moment",
			blocked: true,
		},
		{
			name:    "attention required page",
			markup:  "<h1>Attention Required! | Cloudflare</h1>",
			signal:  "attention required",
			blocked: true,
		},
		{
			name:    "captcha challenge",
			markup:  `<div class="g-recaptcha" data-sitekey="x">CAPTCHA</div>`,
			signal:  "captcha",
			blocked: true,
		},
		{
			name:    "throttle page",
			markup:  "Error 429: rate limit exceeded",
			signal:  "rate limit",
			blocked: true,
		},
		{
			name:    "ordinary shop page",
			markup:  `<div class="product"><span>179,00 €</span></div>`,
			blocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal, blocked := DetectBlockSignal(tt.markup)
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.signal, signal)
		})
	}
}
