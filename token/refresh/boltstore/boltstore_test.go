package boltstore_test

import (
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-store-auth/token/refresh"
	"github.com/jrsteele09/go-store-auth/token/refresh/boltstore"
	"github.com/jrsteele09/go-store-auth/token/refresh/storetest"
	"github.com/stretchr/testify/require"
)

func TestBoltStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) refresh.Store {
		s, err := boltstore.NewFromFile(filepath.Join(t.TempDir(), "refresh.db"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
