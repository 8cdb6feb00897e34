package upstream

import "context"

// CreateProduct submits the fully assembled creation payload. The upstream
// API only accepts fully-formed products; there is no partial or incremental
// creation call.
func (c *Client) CreateProduct(ctx context.Context, cred Credentials, req CreateProductRequest) (CreatedProduct, error) {
	var out CreatedProduct
	if err := c.postJSON(ctx, cred, "/productos", req, &out); err != nil {
		return CreatedProduct{}, err
	}
	return out, nil
}
