package config

import "strings"

func isLocal(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "local")
}

// Local runs need no credentials: the offline extractor answers completions.
func defaultProvider(env string) string {
	if isLocal(env) {
		return ProviderFake
	}
	return ProviderOpenAI
}

func defaultLogFormat(env string) string {
	if isLocal(env) {
		return "console"
	}
	return "json"
}
