// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package edge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// submitBody names the change-set being submitted.
type submitBody struct {
	Comment string `json:"comment,omitempty"`
}

type changelistListResponse struct {
	ChangeLists []ChangelistInfo `json:"changeLists"`
}

// SubmitChangelist submits the zone's staged mutations as one named
// change-set. The returned session carries the requestId used for polling.
func (c *Client) SubmitChangelist(ctx context.Context, zone, comment string) (*ChangelistSession, error) {
	path := fmt.Sprintf("/config-dns/v2/changelists/%s/submit", url.PathEscape(zone))
	var session ChangelistSession
	if err := c.do(ctx, http.MethodPost, path, submitBody{Comment: comment}, &session); err != nil {
		return nil, err
	}
	if session.Zone == "" {
		session.Zone = zone
	}
	c.logger.Verbose("Submitted change-set for zone %s (requestId %s)", zone, session.RequestID)
	return &session, nil
}

// GetSubmission reads the current status of a submitted change-set. This is
// a pure read; only the remote system advances the status.
func (c *Client) GetSubmission(ctx context.Context, zone, requestID string) (*ChangelistSession, error) {
	path := fmt.Sprintf("/config-dns/v2/changelists/%s/submit/%s",
		url.PathEscape(zone), url.PathEscape(requestID))
	var session ChangelistSession
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListChangelists returns the open change-sets across all zones the
// tenant's credentials can see.
func (c *Client) ListChangelists(ctx context.Context) ([]ChangelistInfo, error) {
	var resp changelistListResponse
	if err := c.do(ctx, http.MethodGet, "/config-dns/v2/changelists", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ChangeLists, nil
}
