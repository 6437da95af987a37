package authrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskdock/task-front/internal/log"
	"github.com/taskdock/task-front/internal/provider"
	"github.com/taskdock/task-front/internal/servicecontext"
)

// Client calls the authentication service over JSON/HTTP. One POST per
// call, no retries; a transport failure surfaces immediately to the caller.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient builds a client for the service at baseURL. timeout bounds each
// call; zero means 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type getAuthorizationParamsRequest struct {
	Provider string `json:"provider"`
	ClientID string `json:"clientId"`
}

type exchangeCodeRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	State    string `json:"state"`
}

type sessionTokenRequest struct {
	SessionToken string `json:"sessionToken"`
}

// rpcError is the wire shape of a failed call. Code uses the canonical
// status code names ("UNAUTHENTICATED", "UNAVAILABLE", ...).
type rpcError struct {
	Code    codes.Code `json:"code"`
	Message string     `json:"message"`
}

func (c *Client) GetAuthorizationParams(ctx context.Context, p provider.Provider, clientID string) (*AuthorizationParams, error) {
	var result AuthorizationParams
	err := c.call(ctx, MethodGetAuthorizationParams, getAuthorizationParamsRequest{
		Provider: string(p),
		ClientID: clientID,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ExchangeCode(ctx context.Context, p provider.Provider, code, state string) (*ExchangeResult, error) {
	var result ExchangeResult
	err := c.call(ctx, MethodExchangeCode, exchangeCodeRequest{
		Provider: string(p),
		Code:     code,
		State:    state,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ValidateSession(ctx context.Context, sessionToken string) (*ValidateResult, error) {
	var result ValidateResult
	err := c.call(ctx, MethodValidateSession, sessionTokenRequest{SessionToken: sessionToken}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Logout(ctx context.Context, sessionToken string) (*LogoutResult, error) {
	var result LogoutResult
	err := c.call(ctx, MethodLogout, sessionTokenRequest{SessionToken: sessionToken}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// call performs one JSON POST to /rpc/Auth/{method} and decodes the result.
// Remote failures come back as status errors with the code the service
// reported; transport failures map to Unavailable or DeadlineExceeded.
func (c *Client) call(ctx context.Context, method string, request, result any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return status.Errorf(codes.Internal, "encoding %s request: %v", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/rpc/%s/%s", c.baseURL, ServiceName, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return status.Errorf(codes.Internal, "building %s request: %v", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, ok := servicecontext.SessionToken(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := codes.Unavailable
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = codes.DeadlineExceeded
		}
		log.LogWarnWithFields("authrpc", "Auth service call failed", map[string]any{
			"method": method,
			"error":  err.Error(),
		})
		return status.Errorf(code, "calling auth service %s: %v", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(method, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return status.Errorf(codes.Internal, "decoding %s response: %v", method, err)
	}
	return nil
}

func decodeError(method string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var remote rpcError
	if err := json.Unmarshal(data, &remote); err == nil && remote.Message != "" {
		return status.Error(remote.Code, remote.Message)
	}

	code := codes.Unknown
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		code = codes.Unauthenticated
	case resp.StatusCode >= http.StatusInternalServerError:
		code = codes.Unavailable
	}
	return status.Errorf(code, "auth service %s returned HTTP %d", method, resp.StatusCode)
}
