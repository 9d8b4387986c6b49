package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
)

// TrackerService implements ports.TrackerService over a session's Client.
type TrackerService struct {
	client *Client
}

func NewTrackerService(client *Client) *TrackerService {
	return &TrackerService{client: client}
}

var _ ports.TrackerService = (*TrackerService)(nil)

func (s *TrackerService) DashboardSummary(ctx context.Context) (*ports.DashboardSummary, error) {
	var out ports.DashboardSummary
	if err := s.client.Do(ctx, http.MethodGet, "/activity-logs/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TrackerService) ActivityLogs(ctx context.Context, limit int) ([]ports.ActivityLog, error) {
	path := "/activity-logs"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out []ports.ActivityLog
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TrackerService) PendingApprovals(ctx context.Context) ([]ports.ActivityLog, error) {
	var out []ports.ActivityLog
	if err := s.client.Do(ctx, http.MethodGet, "/activity-logs/pending", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TrackerService) Users(ctx context.Context) ([]ports.UserSummary, error) {
	var out []ports.UserSummary
	if err := s.client.Do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TrackerService) Project(ctx context.Context, id domain.ID) (*ports.ProjectDetail, error) {
	var out ports.ProjectDetail
	if err := s.client.Do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TrackerService) ReportSummary(ctx context.Context) (*ports.ReportSummary, error) {
	var out ports.ReportSummary
	if err := s.client.Do(ctx, http.MethodGet, "/reports/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
