package config

import (
	"github.com/akeren/waitlist-api/pkg/emailjs"
)

func NewEmailJSConfig() emailjs.Config {
	contactsURL := sanitizeEnv(GetValueFromEnvironmentVariable("EMAILJS_CONTACTS_URL", ""))
	if contactsURL == "" {
		contactsURL = emailjs.DefaultContactsURL
	}

	return emailjs.Config{
		APIKey:      sanitizeEnv(GetValueFromEnvironmentVariable("EMAILJS_API_KEY", "")),
		AccountID:   sanitizeEnv(GetValueFromEnvironmentVariable("EMAILJS_ACCOUNT_ID", "")),
		ContactsURL: contactsURL,
		Timeout:     GetDurationFromEnv("EMAILJS_TIMEOUT", emailjs.DefaultTimeout),
	}
}
