// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMaskSensitiveValue(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", ""},
		{"abc", "[REDACTED]"},
		{"secret", "se**et"},
		{"0123456789abcdef", "012**********def"},
	}

	for _, tt := range tests {
		got := MaskSensitiveValue(tt.value)
		if got != tt.want {
			t.Errorf("MaskSensitiveValue(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestReadSecretValue(t *testing.T) {
	dir := t.TempDir()
	secretFile := filepath.Join(dir, "token")
	if err := os.WriteFile(secretFile, []byte("  file-token\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONDUCTOR_TEST_TOKEN", "env-token")

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain value", "plain", "plain"},
		{"file reference", "file://" + secretFile, "file-token"},
		{"missing file falls back", "file://" + filepath.Join(dir, "missing"), "file://" + filepath.Join(dir, "missing")},
		{"env reference", "env://CONDUCTOR_TEST_TOKEN", "env-token"},
		{"missing env falls back", "env://CONDUCTOR_TEST_MISSING", "env://CONDUCTOR_TEST_MISSING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadSecretValue(tt.value); got != tt.want {
				t.Errorf("ReadSecretValue(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"client_secret", true},
		{"access_token", true},
		{"API_KEY", true},
		{"zone", false},
		{"network", false},
	}

	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
