package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-store-auth/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointerHelpers(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, int64(7), utils.Value(utils.Ptr(int64(7))))

	v := 3
	p := utils.Ptr(v)
	*p = 4
	require.Equal(t, 3, v)
}
