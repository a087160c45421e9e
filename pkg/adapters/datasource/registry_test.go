package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

func TestRegistry_RegisterAndOpen(t *testing.T) {
	var gotCfg config.DatabaseConfig
	Register(StoreAdapterRegistration{
		Info: StoreAdapterInfo{Type: "registry-test", DisplayName: "Registry Test"},
		Factory: func(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
			gotCfg = cfg
			return nil, errors.New("refused")
		},
	})

	assert.True(t, IsRegistered("registry-test"))
	assert.NotNil(t, GetFactory("registry-test"))

	var found bool
	for _, info := range RegisteredAdapters() {
		if info.Type == "registry-test" {
			found = true
		}
	}
	assert.True(t, found)

	_, err := Open(context.Background(), config.DatabaseConfig{Type: "registry-test", Database: "shop"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open registry-test store: refused")
	assert.Equal(t, "shop", gotCfg.Database)
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Type: "oracle"}, zap.NewNop())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedStore))
	assert.False(t, IsRegistered("oracle"))
	assert.Nil(t, GetFactory("oracle"))
}
