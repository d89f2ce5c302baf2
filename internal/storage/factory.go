// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/markerscan/markerd/internal/config"
	"github.com/markerscan/markerd/internal/storage/gormstore"
	"github.com/markerscan/markerd/internal/storage/memory"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres", "sqlite":
		return gormstore.New(cfg, log), nil
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
