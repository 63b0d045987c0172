package adapter

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	BaseSQLAdapter
	name string
}

func (s *stubAdapter) Connect(ctx context.Context, cfg Config) error { return nil }
func (s *stubAdapter) TableMetadata(ctx context.Context, table string) (*TableMetadata, error) {
	return nil, errors.New("not implemented")
}
func (s *stubAdapter) DialectName() string { return s.name }

func TestRegistry_RegisterAndGet(t *testing.T) {
	Register("stub", func(logger *slog.Logger) Adapter {
		return &stubAdapter{name: "stub"}
	})

	factory, ok := Get("stub")
	require.True(t, ok)
	assert.Equal(t, "stub", factory(nil).DialectName())

	assert.True(t, IsRegistered("stub"))
	assert.False(t, IsRegistered("no-such-adapter"))
	assert.Contains(t, List(), "stub")
}

func TestNew(t *testing.T) {
	Register("stub2", func(logger *slog.Logger) Adapter {
		return &stubAdapter{name: "stub2"}
	})

	a, err := New(Config{Type: "stub2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "stub2", a.DialectName())
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(Config{Type: "warehouse-9000"}, nil)
	require.Error(t, err)

	var unknownErr *UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "warehouse-9000", unknownErr.Type)
}

func TestNew_EmptyType(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}
