// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

// Package edge is the signed HTTP client for the remote control-plane API
package edge

import (
	"fmt"

	"github.com/miekg/dns"
)

// Operation is the kind of mutation staged for one record set.
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Network is the deployment target for a change.
type Network string

const (
	NetworkStaging    Network = "STAGING"
	NetworkProduction Network = "PRODUCTION"
)

// ValidNetwork reports whether the value is one of the two networks.
func ValidNetwork(n Network) bool {
	return n == NetworkStaging || n == NetworkProduction
}

// RecordChange is one staged mutation against a zone's working set.
// Rdata and TTL are required unless the operation is delete.
type RecordChange struct {
	Name  string    `json:"name" yaml:"name"`
	Type  string    `json:"type" yaml:"type"`
	Op    Operation `json:"op" yaml:"op"`
	TTL   int       `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	Rdata []string  `json:"rdata,omitempty" yaml:"rdata,omitempty"`
}

// Validate checks the change before any network call is made.
func (rc RecordChange) Validate() error {
	if rc.Name == "" {
		return fmt.Errorf("record change missing name")
	}
	if rc.Type == "" {
		return fmt.Errorf("record change %q missing type", rc.Name)
	}
	if _, ok := dns.StringToType[rc.Type]; !ok {
		return fmt.Errorf("record change %q has unknown type %q", rc.Name, rc.Type)
	}
	switch rc.Op {
	case OperationAdd, OperationUpdate:
		if len(rc.Rdata) == 0 {
			return fmt.Errorf("record change %q (%s) requires rdata for %s", rc.Name, rc.Type, rc.Op)
		}
		if rc.TTL <= 0 {
			return fmt.Errorf("record change %q (%s) requires a positive ttl for %s", rc.Name, rc.Type, rc.Op)
		}
	case OperationDelete:
		// rdata and ttl are ignored for deletes
	default:
		return fmt.Errorf("record change %q has unknown operation %q", rc.Name, rc.Op)
	}
	return nil
}

// SubmissionStatus is the remote state of a submitted change-set. Once
// COMPLETE or FAILED it never reverts to PENDING.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "PENDING"
	StatusComplete SubmissionStatus = "COMPLETE"
	StatusFailed   SubmissionStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// ChangelistSession tracks one submitted change-set. It is created by the
// remote system at submission time and only ever updated by polling.
type ChangelistSession struct {
	RequestID          string           `json:"requestId"`
	ChangeTag          string           `json:"changeTag"`
	Zone               string           `json:"zone"`
	Status             SubmissionStatus `json:"status"`
	SubmittedDate      string           `json:"submittedDate,omitempty"`
	CompletedDate      string           `json:"completedDate,omitempty"`
	PassingValidations []string         `json:"passingValidations,omitempty"`
	FailingValidations []string         `json:"failingValidations,omitempty"`
	StatusURL          string           `json:"statusUrl,omitempty"`
}

// ChangelistInfo describes one open change-set. Stale change-sets have
// remained open longer than the normal processing window.
type ChangelistInfo struct {
	Zone             string `json:"zone"`
	ChangeTag        string `json:"changeTag"`
	Stale            bool   `json:"stale"`
	LastModifiedDate string `json:"lastModifiedDate,omitempty"`
}

// APIError is a non-success response from the remote API.
type APIError struct {
	StatusCode int    `json:"-"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("edge API error %d: %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("edge API error %d: %s", e.StatusCode, e.Title)
}
