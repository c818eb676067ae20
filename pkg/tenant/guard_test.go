// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package tenant

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleCredentials = `
tenants:
  default:
    host: edge.api.example.net
    client_token: ct-default
    client_secret: cs-default
    access_token: at-default
  acme:
    host: edge.api.example.net
    client_token: ct-acme
    client_secret: cs-acme
    access_token: at-acme
    zones:
      - example.com
      - "*.example.org"
`

func loadTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.yml")
	if err := os.WriteFile(path, []byte(sampleCredentials), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore() error = %v", err)
	}
	return store
}

func TestGuardAuthorize(t *testing.T) {
	guard := NewGuard(loadTestStore(t), "")

	tests := []struct {
		name    string
		tenant  string
		zone    string
		wantErr bool
	}{
		{"empty tenant falls back to default", "", "anything.example.net", false},
		{"default tenant unrestricted", "default", "example.com", false},
		{"scoped tenant exact zone", "acme", "example.com", false},
		{"scoped tenant wildcard subzone", "acme", "sub.example.org", false},
		{"scoped tenant wildcard base zone", "acme", "example.org", false},
		{"scoped tenant out of scope", "acme", "other.com", true},
		{"unknown tenant", "ghost", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := guard.Authorize(tt.tenant, tt.zone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Authorize(%q, %q) error = %v, wantErr %v", tt.tenant, tt.zone, err, tt.wantErr)
			}
			if err != nil {
				var authErr *AuthorizationError
				if !errors.As(err, &authErr) {
					t.Errorf("error type = %T, want *AuthorizationError", err)
				}
				return
			}
			if tc.Credentials.ClientToken == "" {
				t.Error("resolved context has empty credentials")
			}
		})
	}
}

func TestGuardResolvesDefaultTenantName(t *testing.T) {
	guard := NewGuard(loadTestStore(t), "acme")
	tc, err := guard.Authorize("", "example.com")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if tc.Tenant != "acme" {
		t.Errorf("Tenant = %q, want acme", tc.Tenant)
	}
}

func TestStoreSecretResolution(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "secret")
	if err := os.WriteFile(secretPath, []byte("from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	credPath := filepath.Join(dir, "credentials.yml")
	content := `
tenants:
  default:
    host: edge.api.example.net
    client_token: ct
    client_secret: file://` + secretPath + `
    access_token: at
`
	if err := os.WriteFile(credPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := LoadStore(credPath)
	if err != nil {
		t.Fatalf("LoadStore() error = %v", err)
	}
	creds, ok := store.Get("default")
	if !ok {
		t.Fatal("default tenant missing")
	}
	if creds.ClientSecret != "from-file" {
		t.Errorf("ClientSecret = %q, want from-file", creds.ClientSecret)
	}
}

func TestLoadStoreRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yml")
	if err := os.WriteFile(path, []byte("tenants: {}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStore(path); err == nil {
		t.Error("LoadStore() with no tenants should fail")
	}
}
