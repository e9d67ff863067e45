// Package backup exports and restores the catalog and shop settings as a
// single JSON document.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/settings"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var ErrInvalidBundle = errors.New("invalid backup")

const bundleSchema = `{
  "type": "object",
  "required": ["products"],
  "properties": {
    "products": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "weight_grams", "main_price", "active_price", "scan_code"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "weight_grams": {"type": "integer", "minimum": 1},
          "main_price": {"type": ["string", "number"]},
          "active_price": {"type": ["string", "number"]},
          "scan_code": {"type": "string", "minLength": 1},
          "created_at": {"type": "string"}
        }
      }
    },
    "settings": {
      "type": "object",
      "properties": {
        "shop_name": {"type": "string"},
        "shop_address": {"type": "string"},
        "shop_phone": {"type": "string"},
        "tax_rate": {"type": ["string", "number"]},
        "currency_symbol": {"type": "string"},
        "timezone": {"type": "string"},
        "auto_connect": {"type": "boolean"},
        "printer_name": {"type": "string"}
      }
    },
    "export_date": {"type": "string"}
  }
}`

var schema = jsonschema.MustCompileString("pos-backup.schema.json", bundleSchema)

type Bundle struct {
	Products   []domain.Product   `json:"products"`
	Settings   *domain.ShopConfig `json:"settings,omitempty"`
	ExportDate time.Time          `json:"export_date"`
}

type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Import(ctx context.Context, products []domain.Product) error
}

type Service struct {
	catalog  Catalog
	settings settings.Store
	now      func() time.Time
}

func NewService(catalog Catalog, store settings.Store) *Service {
	return &Service{catalog: catalog, settings: store, now: time.Now}
}

func (s *Service) Export(ctx context.Context) (*Bundle, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &Bundle{Products: products, Settings: &cfg, ExportDate: s.now().UTC()}, nil
}

// ExportJSON returns the indented bundle and its download file name.
func (s *Service) ExportJSON(ctx context.Context) (string, []byte, error) {
	b, err := s.Export(ctx)
	if err != nil {
		return "", nil, err
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("marshal backup: %w", err)
	}
	return FileName(b.ExportDate), data, nil
}

// Import validates the whole document before replacing anything. Settings
// are only replaced when the bundle carries them.
func (s *Service) Import(ctx context.Context, data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	var in struct {
		Products []domain.Product `json:"products"`
		Settings json.RawMessage  `json:"settings"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	var cfg *domain.ShopConfig
	if len(in.Settings) > 0 && string(in.Settings) != "null" {
		c := domain.DefaultShopConfig()
		if err := json.Unmarshal(in.Settings, &c); err != nil {
			return fmt.Errorf("%w: settings: %v", ErrInvalidBundle, err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
		}
		cfg = &c
	}

	if err := s.catalog.Import(ctx, in.Products); err != nil {
		return err
	}
	if cfg != nil {
		if err := s.settings.Save(ctx, *cfg); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	return nil
}

func FileName(t time.Time) string {
	return fmt.Sprintf("pos-backup-%s.json", t.Format("2006-01-02"))
}
