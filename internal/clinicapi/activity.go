package clinicapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/activity"
)

var _ activity.Backend = (*Client)(nil)

func (c *Client) ListActivity(ctx context.Context, actionType string) ([]activity.Entry, error) {
	q := url.Values{}
	if actionType != "" {
		q.Set("action_type", actionType)
	}
	var resp struct {
		Logs []activity.Entry `json:"logs"`
	}
	if err := c.do(ctx, http.MethodGet, "/activity-logs", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Logs == nil {
		resp.Logs = []activity.Entry{}
	}
	return resp.Logs, nil
}
