// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

// Package util provides small helpers shared across conductor
package util

import (
	"fmt"
	"os"
	"strings"
)

// ReadSecretValue resolves a credential value. "file://path" reads the file
// content, "env://NAME" reads the environment variable, anything else is
// returned as-is. Unresolvable references fall back to the original value.
func ReadSecretValue(value string) string {
	if strings.HasPrefix(value, "file://") {
		content, err := os.ReadFile(strings.TrimPrefix(value, "file://"))
		if err != nil {
			return value
		}
		return strings.TrimSpace(string(content))
	}
	if strings.HasPrefix(value, "env://") {
		if envValue := os.Getenv(strings.TrimPrefix(value, "env://")); envValue != "" {
			return envValue
		}
		return value
	}
	return value
}

// MaskSensitiveValue masks a secret for safe logging, keeping a couple of
// characters at either end so values remain identifiable.
func MaskSensitiveValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) < 6 {
		return "[REDACTED]"
	}
	visible := 2
	if len(value) > 12 {
		visible = 3
	}
	prefix := value[:visible]
	suffix := value[len(value)-visible:]
	return fmt.Sprintf("%s%s%s", prefix, strings.Repeat("*", len(value)-2*visible), suffix)
}

// IsSensitiveKey reports whether a configuration key likely holds a secret.
func IsSensitiveKey(key string) bool {
	sensitiveKeywords := []string{
		"password", "pass", "secret", "key", "token", "auth", "cred",
	}
	lowerKey := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
