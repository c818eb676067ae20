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

// recordsetBody is the payload for add and update staging calls.
type recordsetBody struct {
	TTL   int      `json:"ttl"`
	Rdata []string `json:"rdata"`
}

// StageRecordChange stages one mutation in the zone's open change-set. It
// does not activate anything; the change waits in the remote working set
// until the change-set is submitted.
func (c *Client) StageRecordChange(ctx context.Context, zone string, change RecordChange) error {
	path := fmt.Sprintf("/config-dns/v2/zones/%s/recordsets/%s/%s",
		url.PathEscape(zone), url.PathEscape(change.Name), url.PathEscape(change.Type))

	switch change.Op {
	case OperationAdd:
		return c.do(ctx, http.MethodPost, path, recordsetBody{TTL: change.TTL, Rdata: change.Rdata}, nil)
	case OperationUpdate:
		return c.do(ctx, http.MethodPut, path, recordsetBody{TTL: change.TTL, Rdata: change.Rdata}, nil)
	case OperationDelete:
		return c.do(ctx, http.MethodDelete, path, nil, nil)
	default:
		return fmt.Errorf("unknown operation %q for %s/%s", change.Op, change.Name, change.Type)
	}
}
