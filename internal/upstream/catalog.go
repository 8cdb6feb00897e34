package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Kind names a catalog the upstream API paginates for us.
type Kind string

const (
	KindColors     Kind = "colores"
	KindSizes      Kind = "tallas"
	KindBranches   Kind = "sucursales"
	KindCategories Kind = "categorias"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindColors, KindSizes, KindBranches, KindCategories:
		return Kind(s), nil
	}
	return "", fmt.Errorf("catálogo desconocido: %s", s)
}

// ListCatalog fetches one page of a catalog. A non-empty search term routes
// to the /buscar endpoint; both sources return the same envelope and the
// engine treats them as equivalent.
func (c *Client) ListCatalog(ctx context.Context, cred Credentials, kind Kind, search string, page, limit int) (Page, error) {
	path := "/" + string(kind)
	query := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	if search != "" {
		path += "/buscar"
		query.Set("q", search)
	}

	var out Page
	if err := c.getJSON(ctx, cred, path, query, &out); err != nil {
		return Page{}, err
	}
	return out, nil
}
