package secret

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := Hash("open sesame")
	require.NoError(t, err)
	require.NotEqual(t, "open sesame", hash)

	require.NoError(t, Check(hash, "open sesame"))
	require.Error(t, Check(hash, "wrong"))
}
