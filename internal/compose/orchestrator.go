package compose

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mostrador/internal/catalog"
	"mostrador/internal/media"
	"mostrador/internal/upstream"
)

// ErrSaveInProgress is returned when a save is already running for the
// session; the attempt is turned away, not queued.
var ErrSaveInProgress = errors.New("ya hay un guardado en curso")

// ValidationError is a precondition failure detected before any network
// call. The save aborts with no side effects.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SaveRequest carries the product header fields for the final save.
type SaveRequest struct {
	BranchID     int64  `json:"idSucursal" validate:"required,gt=0"`
	CategoryID   int64  `json:"idCategoria" validate:"required,gt=0"`
	SKU          string `json:"sku" validate:"required"`
	Name         string `json:"nombre" validate:"required"`
	Description  string `json:"descripcion"`
	ExternalCode string `json:"codigoExterno"`
}

// Orchestrator runs the two-phase save transaction: concurrent per-color
// media uploads, then a single product creation request. Phase 1 is not
// rolled back when phase 2 fails; the upstream API offers no deletion call
// for just-uploaded images, so the orphan gap of the original is preserved.
type Orchestrator struct {
	client *upstream.Client
	logger *zap.SugaredLogger
}

func NewOrchestrator(client *upstream.Client, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{client: client, logger: logger}
}

type parsedRow struct {
	key   VariantKey
	price float64
	stock int
}

// Save validates the composition, uploads staged media and creates the
// product. It observes a snapshot taken at invocation; concurrent edits do
// not leak into an in-flight save.
func (o *Orchestrator) Save(ctx context.Context, cred upstream.Credentials, sess *Session, req SaveRequest) (upstream.CreatedProduct, error) {
	if !sess.beginSave() {
		return upstream.CreatedProduct{}, ErrSaveInProgress
	}
	defer sess.endSave()

	snap, err := sess.Snapshot()
	if err != nil {
		return upstream.CreatedProduct{}, err
	}

	rows, err := validate(&req, snap)
	if err != nil {
		return upstream.CreatedProduct{}, err
	}

	results, err := o.uploadAll(ctx, cred, snap)
	if err != nil {
		return upstream.CreatedProduct{}, err
	}

	payload := upstream.CreateProductRequest{
		BranchID:     req.BranchID,
		CategoryID:   req.CategoryID,
		SKU:          strings.TrimSpace(req.SKU),
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		ExternalCode: strings.TrimSpace(req.ExternalCode),
		Variants:     buildVariants(rows),
		Images:       buildImages(snap.Colors, results, snap.MaxPerColor),
	}

	created, err := o.client.CreateProduct(ctx, cred, payload)
	if err != nil {
		o.logger.Errorw("product creation failed after uploads",
			"sku", payload.SKU, "colors", len(snap.Colors), "err", err)
		return upstream.CreatedProduct{}, err
	}

	o.logger.Infow("product created",
		"id", created.ID, "sku", created.SKU,
		"variants", len(payload.Variants), "images", len(payload.Images))
	return created, nil
}

// validate runs the save preconditions in order; each failure carries its
// own user-visible message and aborts before any network call.
func validate(req *SaveRequest, snap Snapshot) ([]parsedRow, error) {
	if req.BranchID <= 0 {
		return nil, validationf("seleccione una sucursal válida")
	}
	if req.CategoryID <= 0 {
		return nil, validationf("seleccione una categoría válida")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationf("el nombre del producto es obligatorio")
	}
	if strings.TrimSpace(req.SKU) == "" {
		return nil, validationf("el SKU es obligatorio")
	}
	if len(snap.Colors) == 0 {
		return nil, validationf("seleccione al menos un color")
	}
	if len(snap.Sizes) == 0 {
		return nil, validationf("seleccione al menos una talla")
	}
	if len(snap.Rows) == 0 {
		return nil, validationf("no hay variantes para guardar")
	}
	for _, color := range snap.Colors {
		if len(snap.Media[color.ID]) == 0 {
			return nil, validationf("el color %s no tiene imágenes", color.Name)
		}
	}

	rows := make([]parsedRow, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		price, err := strconv.ParseFloat(strings.TrimSpace(r.Price), 64)
		if err != nil || price < 0 {
			return nil, validationf("precio inválido para %s / %s", r.Color.Name, r.Size.Name)
		}
		stock, err := strconv.Atoi(strings.TrimSpace(r.Stock))
		if err != nil || stock < 0 {
			return nil, validationf("stock inválido para %s / %s", r.Color.Name, r.Size.Name)
		}
		rows = append(rows, parsedRow{key: r.Key, price: price, stock: stock})
	}
	return rows, nil
}

// uploadAll fans the per-color uploads out concurrently and fails fast on
// the first rejection; sibling uploads that already succeeded are neither
// retried nor rolled back.
func (o *Orchestrator) uploadAll(ctx context.Context, cred upstream.Credentials, snap Snapshot) ([]upstream.UploadResult, error) {
	results := make([]upstream.UploadResult, len(snap.Colors))
	g, gctx := errgroup.WithContext(ctx)

	for i, color := range snap.Colors {
		i, color := i, color
		files := toFileParts(snap.Files[color.ID])
		g.Go(func() error {
			res, err := o.client.UploadColorImages(gctx, cred, color.ID, nil, files)
			if err != nil {
				return fmt.Errorf("error al subir imágenes del color %s: %w", color.Name, err)
			}
			if len(res.Images) == 0 {
				return fmt.Errorf("el servidor no devolvió imágenes para el color %s", color.Name)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func toFileParts(files []media.FileData) []upstream.FilePart {
	parts := make([]upstream.FilePart, 0, len(files))
	for _, f := range files {
		parts = append(parts, upstream.FilePart{FileName: f.FileName, Data: f.Data})
	}
	return parts
}

func buildVariants(rows []parsedRow) []upstream.ProductVariant {
	out := make([]upstream.ProductVariant, 0, len(rows))
	for _, r := range rows {
		out = append(out, upstream.ProductVariant{
			ColorID: r.key.ColorID,
			SizeID:  r.key.SizeID,
			Price:   r.price,
			Stock:   r.stock,
		})
	}
	return out
}

// buildImages flattens the upload results into the creation payload's image
// list: per color, ordered by the server-suggested order, capped at the
// per-color maximum; the first image overall is the product's primary.
func buildImages(colors []catalog.Entity, results []upstream.UploadResult, maxPerColor int) []upstream.ProductImage {
	type ordered struct {
		img  upstream.UploadedImage
		rank int
	}
	var out []upstream.ProductImage
	for i, color := range colors {
		images := make([]ordered, 0, len(results[i].Images))
		for j, img := range results[i].Images {
			images = append(images, ordered{img: img, rank: suggested(img, j)})
		}
		sort.SliceStable(images, func(a, b int) bool {
			return images[a].rank < images[b].rank
		})
		if len(images) > maxPerColor {
			images = images[:maxPerColor]
		}
		for order, o := range images {
			out = append(out, upstream.ProductImage{
				ColorID:   color.ID,
				Order:     order,
				IsPrimary: len(out) == 0,
				URL:       o.img.URL,
				ThumbURL:  o.img.ThumbURL,
			})
		}
	}
	return out
}

func suggested(img upstream.UploadedImage, fallback int) int {
	if img.SuggestedOrder != nil {
		return *img.SuggestedOrder
	}
	return fallback
}
