package logging

import "unicode/utf8"

// keyPrefixLen covers a provider prefix such as "sk-ant-" and nothing that identifies the key.
const keyPrefixLen = 7

// RedactKey returns a loggable form of a credential.
func RedactKey(key string) string {
	if key == "" {
		return "NONE"
	}
	if len(key) <= keyPrefixLen*2 {
		return "***"
	}
	return key[:keyPrefixLen] + "..."
}

// Truncate shortens s to at most n bytes for log output without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
