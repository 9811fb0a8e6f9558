package config

// DefaultFallbackText is shown as a bot message when an exchange fails.
const DefaultFallbackText = "Sorry, something went wrong. Please try again."

// Defaults returns the built-in widget configuration. Webhook.URL is
// deliberately empty: a host must always supply one.
func Defaults() Widget {
	return Widget{
		Webhook: WebhookConfig{
			URL:            "",
			TimeoutSeconds: 0,
			Retries:        0,
		},
		Branding: BrandingConfig{
			Logo:        "/assets/logo.svg",
			Name:        "Support",
			WelcomeText: "Hi 👋, how can we help?",
			WelcomeButtons: []WelcomeButton{
				{Label: "Send us a message", InitialMessage: "Hi, I have a question."},
			},
			PoweredBy: PoweredBy{
				Text: "Powered by chatwidget",
				Link: "https://example.com",
			},
		},
		Style: StyleConfig{
			PrimaryColor:    "#f97316",
			HeaderColor:     "#f8fafc",
			BackgroundColor: "#ffffff",
			FontColor:       "#1e293b",
			Position:        PositionRight,
		},
		Behavior: BehaviorConfig{
			FallbackText:   DefaultFallbackText,
			SendMode:       SendModeConcurrent,
			MarkdownEngine: "builtin",
		},
	}
}
