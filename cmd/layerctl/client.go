package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/galaxy/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.Status)
}

// client talks to the registry REST API
type client struct {
	http *resty.Client
}

func newClient(server, token string, timeout time.Duration) *client {
	c := resty.New().
		SetBaseURL(server).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("Accept", "application/json").
		SetError(&types.ErrorResponse{})

	// Reads are retried on 5xx; a create is never replayed after the server answered
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err == nil && r.Request.Method == http.MethodGet && r.StatusCode() >= 500
	})
	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader(tracing.HeaderTraceID, string(tracing.NewTraceID()))
		return nil
	})

	if token != "" {
		c.SetAuthToken(token)
	}
	return &client{http: c}
}

func (c *client) register(ctx context.Context, username, password string) (types.Account, error) {
	var account types.Account
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(types.CredentialsRequest{Username: username, Password: password}).
		SetResult(&account).
		Post("/api/v1/auth/register")
	return account, check(resp, err)
}

func (c *client) login(ctx context.Context, username, password string) (types.SessionResponse, error) {
	var session types.SessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(types.CredentialsRequest{Username: username, Password: password}).
		SetResult(&session).
		Post("/api/v1/auth/login")
	return session, check(resp, err)
}

func (c *client) logout(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Post("/api/v1/auth/logout")
	return check(resp, err)
}

func (c *client) me(ctx context.Context) (types.Account, error) {
	var account types.Account
	resp, err := c.http.R().SetContext(ctx).SetResult(&account).Get("/api/v1/auth/me")
	return account, check(resp, err)
}

func (c *client) createLayer(ctx context.Context, name, link string) (types.LayerResponse, error) {
	var layer types.LayerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(types.CreateLayerRequest{LayerName: name, IPFSLink: link}).
		SetResult(&layer).
		Post("/api/v1/layers")
	return layer, check(resp, err)
}

// resolve uses the query form so names containing '/' work
func (c *client) resolve(ctx context.Context, user, name string) (types.LayerResponse, error) {
	var layer types.LayerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"user": user, "name": name}).
		SetResult(&layer).
		Get("/api/v1/resolve")
	return layer, check(resp, err)
}

func (c *client) list(ctx context.Context, user string) (types.LayerListResponse, error) {
	var list types.LayerListResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("user", user).
		SetResult(&list).
		Get("/api/v1/users/{user}/layers")
	return list, check(resp, err)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*types.ErrorResponse); ok && body != nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
	}
	return apiErr
}
