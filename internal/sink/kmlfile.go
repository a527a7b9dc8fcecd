package sink

import (
	"context"
	"fmt"
	"os"
)

// KMLFile overwrites Path with the rendered document.
type KMLFile struct {
	Path string
}

func NewKMLFile(path string) *KMLFile { return &KMLFile{Path: path} }

func (k *KMLFile) Name() string { return "kml" }

func (k *KMLFile) Write(ctx context.Context, b Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(k.Path, b.Document, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", k.Path, err)
	}
	return nil
}
