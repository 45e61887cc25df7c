package activity

import (
	"context"
	"encoding/json"

	"github.com/example/task-api/domain/apperror"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ListActivityRequest is the request for reading the feed.
type ListActivityRequest struct {
	Limit int `json:"limit"`
}

// ListActivityResponse carries feed entries, newest first.
type ListActivityResponse struct {
	Entries []Entry           `json:"entries"`
	Error   *apperror.Payload `json:"error,omitempty"`
}

// ActivityPort reads the activity feed.
type ActivityPort interface {
	ListActivity(ctx context.Context, limit int) ([]Entry, error)
}

type activityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates an ActivityPort backed by the activity module's services.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	if container == nil {
		panic("activity adapter requires non-nil ServiceContainer")
	}
	return &activityAdapter{container: container}
}

func (a *activityAdapter) ListActivity(ctx context.Context, limit int) ([]Entry, error) {
	req := ListActivityRequest{Limit: limit}
	var resp ListActivityResponse
	if err := helper.CallRequestReplyService(ctx, a.container, "list-activity", json.Marshal, json.Unmarshal, &req, &resp); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}
