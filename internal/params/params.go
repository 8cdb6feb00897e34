package params

import (
	"net/url"
	"strconv"
	"strings"
)

// Paging mirrors the upstream catalog contract: page/limit in, the server
// reports totalPages/totalElements back. The proxy clamps what the UI sends
// before forwarding.
type Paging struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Parse reads ?page=...&limit=... safely. Keys are case sensitive.
func Parse(q url.Values) Paging {
	p := Paging{Page: 1, Limit: defaultLimit}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = defaultLimit
			case limit > maxLimit:
				p.Limit = maxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = page
		}
	}
	return p
}
