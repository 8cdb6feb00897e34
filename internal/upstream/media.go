package upstream

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
)

// FilePart is one staged file to include in a multipart upload. It carries
// the bytes themselves; the staged handle may be released while the upload
// is still in flight.
type FilePart struct {
	FileName string
	Data     []byte
}

// UploadColorImages submits every staged file of one color as a single
// multipart request. productID is optional; it is absent while composing a
// product that does not exist yet.
func (c *Client) UploadColorImages(ctx context.Context, cred Credentials, colorID int64, productID *int64, files []FilePart) (UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("colorId", strconv.FormatInt(colorID, 10)); err != nil {
		return UploadResult{}, err
	}
	if productID != nil {
		if err := mw.WriteField("productoId", strconv.FormatInt(*productID, 10)); err != nil {
			return UploadResult{}, err
		}
	}
	for _, fp := range files {
		part, err := mw.CreateFormFile("files", fp.FileName)
		if err != nil {
			return UploadResult{}, err
		}
		if _, err := part.Write(fp.Data); err != nil {
			return UploadResult{}, fmt.Errorf("write staged file %s: %w", fp.FileName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/imagenes/productos", &body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResult
	if err := c.do(req, cred, &out); err != nil {
		return UploadResult{}, err
	}
	return out, nil
}
