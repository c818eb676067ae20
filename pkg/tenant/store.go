// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

// Package tenant resolves and authorizes the tenants conductor acts for
package tenant

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"conductor/pkg/log"
	"conductor/pkg/util"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Credentials holds one tenant's edge API credentials and zone scope.
// An empty Zones list grants access to every zone.
type Credentials struct {
	Host         string   `yaml:"host"`
	ClientToken  string   `yaml:"client_token"`
	ClientSecret string   `yaml:"client_secret"`
	AccessToken  string   `yaml:"access_token"`
	Zones        []string `yaml:"zones"`
}

type credentialsFile struct {
	Tenants map[string]Credentials `yaml:"tenants"`
}

// Store is the tenant credential store, loaded from a YAML file and
// optionally reloaded when the file changes on disk.
type Store struct {
	mu      sync.RWMutex
	path    string
	tenants map[string]Credentials
	logger  *log.ScopedLogger
}

// NewStaticStore builds a store from already-resolved credentials. Library
// embedders and tests use it; there is no file backing, so Watch fails.
func NewStaticStore(tenants map[string]Credentials) *Store {
	return &Store{
		tenants: tenants,
		logger:  log.NewScopedLogger("[tenant/store]", ""),
	}
}

// LoadStore reads the credential file and returns a store.
func LoadStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		logger: log.NewScopedLogger("[tenant/store]", ""),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("[tenant/store] failed to read credential file %s: %w", s.path, err)
	}
	var parsed credentialsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("[tenant/store] failed to parse credential file %s: %w", s.path, err)
	}
	if len(parsed.Tenants) == 0 {
		return fmt.Errorf("[tenant/store] credential file %s defines no tenants", s.path)
	}

	resolved := make(map[string]Credentials, len(parsed.Tenants))
	for name, creds := range parsed.Tenants {
		creds.ClientToken = util.ReadSecretValue(creds.ClientToken)
		creds.ClientSecret = util.ReadSecretValue(creds.ClientSecret)
		creds.AccessToken = util.ReadSecretValue(creds.AccessToken)
		resolved[name] = creds
	}

	s.mu.Lock()
	s.tenants = resolved
	s.mu.Unlock()

	s.logger.Verbose("Loaded %d tenants from %s", len(resolved), s.path)
	return nil
}

// Get returns the credentials for a tenant.
func (s *Store) Get(name string) (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.tenants[name]
	return creds, ok
}

// Names returns the registered tenant names.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tenants))
	for name := range s.tenants {
		names = append(names, name)
	}
	return names
}

// Watch reloads the store when the credential file changes. It returns once
// the watcher is installed; reloads happen on a background goroutine until
// stop is closed. Editors often replace files via rename, so the parent
// directory is watched and events are filtered by path.
func (s *Store) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("[tenant/store] failed to create watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("[tenant/store] failed to watch %s: %w", dir, err)
	}

	absPath, _ := filepath.Abs(s.path)

	go func() {
		defer watcher.Close()
		var debounce <-chan time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				absEvent, _ := filepath.Abs(event.Name)
				if absEvent != absPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				s.logger.Trace("fsnotify event: %v", event.Op)
				debounce = time.After(250 * time.Millisecond)
			case <-debounce:
				debounce = nil
				if err := s.reload(); err != nil {
					s.logger.Error("Reload failed, keeping previous credentials: %v", err)
				} else {
					s.logger.Info("Credential file reloaded")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Watcher error: %v", err)
			case <-stop:
				return
			}
		}
	}()

	return nil
}
