package catalog

import (
	"context"
	"strings"

	"github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/shopify"
)

const (
	DefaultPageSize     = 20
	MaxPageSize         = 50
	DefaultRelatedLimit = 2
	relatedPoolSize     = 20
)

// Source is the read side of the commerce platform.
type Source interface {
	Configured() bool
	ListProducts(ctx context.Context, first int) ([]shopify.Product, error)
	ProductByHandle(ctx context.Context, handle string) (*shopify.Product, error)
	ListCollections(ctx context.Context, first int) ([]shopify.Collection, error)
}

type Service interface {
	ListProducts(ctx context.Context, first int) ([]shopify.Product, error)
	GetProduct(ctx context.Context, handle string) (*ProductDetail, error)
	RelatedProducts(ctx context.Context, handle string, limit int) ([]shopify.Product, error)
	ListCollections(ctx context.Context, first int) ([]shopify.Collection, error)
}

// ProductDetail is a product plus the presentation fields the product page needs.
type ProductDetail struct {
	shopify.Product
	Paragraphs      []string `json:"paragraphs"`
	DescriptionHTML string   `json:"descriptionHtml"`
	Sizes           []string `json:"sizes"`
}

type service struct {
	source Source
}

func NewService(source Source) Service {
	return &service{source: source}
}

func (s *service) available() error {
	if s == nil || s.source == nil || !s.source.Configured() {
		return errors.New(errors.CodeDependency, "catalog unavailable")
	}
	return nil
}

// ClampPageSize applies the listing default and ceiling.
func ClampPageSize(first int) int {
	switch {
	case first <= 0:
		return DefaultPageSize
	case first > MaxPageSize:
		return MaxPageSize
	default:
		return first
	}
}

func (s *service) ListProducts(ctx context.Context, first int) ([]shopify.Product, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	return s.source.ListProducts(ctx, ClampPageSize(first))
}

func (s *service) GetProduct(ctx context.Context, handle string) (*ProductDetail, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, errors.New(errors.CodeValidation, "handle is required")
	}
	product, err := s.source.ProductByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{
		Product:         *product,
		Paragraphs:      FormatDescription(product.Description),
		DescriptionHTML: FormatDescriptionHTML(product.Description),
		Sizes:           AvailableSizes(*product),
	}, nil
}

// RelatedProducts returns other products from the head of the catalog.
func (s *service) RelatedProducts(ctx context.Context, handle string, limit int) ([]shopify.Product, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	products, err := s.source.ListProducts(ctx, relatedPoolSize)
	if err != nil {
		return nil, err
	}
	related := make([]shopify.Product, 0, limit)
	for _, p := range products {
		if p.Handle == handle {
			continue
		}
		related = append(related, p)
		if len(related) == limit {
			break
		}
	}
	return related, nil
}

func (s *service) ListCollections(ctx context.Context, first int) ([]shopify.Collection, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	return s.source.ListCollections(ctx, ClampPageSize(first))
}
