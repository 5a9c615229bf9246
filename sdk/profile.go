package lyra

import (
	"context"
	"net/http"
)

// ProfileService persists the onboarding profile. Fields are opaque
// key/value pairs defined by the backend; the client does not interpret them.
type ProfileService struct {
	client *Client
}

// Get fetches the stored profile fields.
func (s *ProfileService) Get(ctx context.Context) (map[string]any, error) {
	var fields map[string]any
	err := s.client.Auth.DoJSON(ctx, &Request{Method: http.MethodGet, Path: "/auth/profile"}, &fields)
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// Save replaces the stored profile fields.
func (s *ProfileService) Save(ctx context.Context, fields map[string]any) error {
	req := &Request{
		Method: http.MethodPost,
		Path:   "/auth/profile",
		Body:   fields,
	}
	return s.client.Auth.DoJSON(ctx, req, nil)
}
