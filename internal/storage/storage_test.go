// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wargame2d/engine/internal/config"
	"github.com/wargame2d/engine/internal/storage"
	"github.com/wargame2d/engine/internal/storage/memory"
	sqlitestorage "github.com/wargame2d/engine/internal/storage/sqlite"
)

var (
	_ storage.Backend     = (*memory.Backend)(nil)
	_ storage.Exporter    = (*memory.Backend)(nil)
	_ storage.Backend     = (*sqlitestorage.Backend)(nil)
	_ storage.Exporter    = (*sqlitestorage.Backend)(nil)
	_ storage.LossCounter = (*sqlitestorage.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		typ     string
		want    any
		wantErr bool
	}{
		{typ: "memory", want: &memory.Backend{}},
		{typ: "", want: &memory.Backend{}},
		{typ: "sqlite", want: &sqlitestorage.Backend{}},
		{typ: "postgres", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			b, err := storage.NewBackend(config.StorageConfig{Type: tt.typ}, zerolog.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}
