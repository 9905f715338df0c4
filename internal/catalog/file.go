package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Skufu/mealguard/internal/model"
)

// FileSource reads the catalog from a YAML document with top-level plans,
// labRules and medicines keys.
type FileSource struct {
	Path string
}

func (f FileSource) FetchCatalog(ctx context.Context) (*model.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document. Unknown keys are an error.
func Parse(data []byte) (*model.Catalog, error) {
	var c model.Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSourceData
		}
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalid, err)
	}
	return &c, nil
}
