package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnauthorized covers upstream 401/403; the engine never distinguishes
	// them beyond showing a generic message.
	ErrUnauthorized = errors.New("no autorizado, inicie sesión nuevamente")
	ErrConnectivity = errors.New("no se pudo conectar con el servidor")
)

const fallbackMessage = "ocurrió un error inesperado en el servidor"

// Credentials are the caller's forwarded auth material. The BFF never mints
// tokens itself; it passes through whatever the admin request carried.
type Credentials struct {
	Authorization string
	Cookie        string
}

// Client is the authorized-fetch collaborator over the remote POS API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) getJSON(ctx context.Context, cred Credentials, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, cred, out)
}

func (c *Client) postJSON(ctx context.Context, cred Credentials, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, cred, out)
}

func (c *Client) do(req *http.Request, cred Credentials, out any) error {
	if cred.Authorization != "" {
		req.Header.Set("Authorization", cred.Authorization)
	}
	if cred.Cookie != "" {
		req.Header.Set("Cookie", cred.Cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.logger.Errorw("upstream request failed", "url", req.URL.String(), "err", err)
		return ErrConnectivity
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(errorMessage(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

// errorMessage extracts the upstream JSON {message} verbatim when present,
// falling back to a fixed string otherwise.
func errorMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<16)).Decode(&payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fallbackMessage
}
