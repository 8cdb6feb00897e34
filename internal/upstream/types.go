package upstream

import "mostrador/internal/catalog"

// Page is the envelope every upstream list/search endpoint returns.
type Page struct {
	Content       []catalog.Entity `json:"content"`
	TotalPages    int              `json:"totalPages"`
	TotalElements int              `json:"totalElements"`
}

// UploadedImage is one stored image descriptor from the media upload endpoint.
type UploadedImage struct {
	URL            string `json:"url"`
	ThumbURL       string `json:"urlThumb"`
	SuggestedOrder *int   `json:"ordenSugerido,omitempty"`
}

// UploadResult is the per-color media upload response.
type UploadResult struct {
	ColorID int64           `json:"colorId"`
	Images  []UploadedImage `json:"imagenes"`
}

type ProductVariant struct {
	ColorID int64   `json:"colorId"`
	SizeID  int64   `json:"tallaId"`
	Price   float64 `json:"precio"`
	Stock   int     `json:"stock"`
}

type ProductImage struct {
	ColorID   int64  `json:"colorId"`
	Order     int    `json:"orden"`
	IsPrimary bool   `json:"esPrincipal"`
	URL       string `json:"url"`
	ThumbURL  string `json:"urlThumb"`
}

type CreateProductRequest struct {
	BranchID     int64            `json:"idSucursal"`
	CategoryID   int64            `json:"idCategoria"`
	SKU          string           `json:"sku"`
	Name         string           `json:"nombre"`
	Variants     []ProductVariant `json:"variantes"`
	Images       []ProductImage   `json:"imagenes"`
	Description  string           `json:"descripcion,omitempty"`
	ExternalCode string           `json:"codigoExterno,omitempty"`
}

type CreatedProduct struct {
	ID   int64  `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"nombre"`
}
