//go:build relaytest

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	Reset()
	os.Setenv("HEDERA_NETWORK", "testnet")
	os.Setenv("MIRROR_NODE_URL", "https://testnet.mirrornode.hedera.com")
	os.Setenv("READ_ONLY", "true")
	defer os.Unsetenv("HEDERA_NETWORK")
	defer os.Unsetenv("MIRROR_NODE_URL")
	defer os.Unsetenv("READ_ONLY")

	r, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(20), r.Int64("FILE_APPEND_MAX_CHUNKS"))
	require.Equal(t, "internal", r.String("IP_RATE_LIMIT_STORE"))
	require.True(t, r.Bool("READ_ONLY"))
	require.Equal(t, ModeReadOnly, r.Mode())
}

func TestLoadFailsFastOnMissingRequiredKey(t *testing.T) {
	Reset()
	os.Unsetenv("READ_ONLY")
	os.Unsetenv("HEDERA_NETWORK")
	os.Unsetenv("MIRROR_NODE_URL")
	os.Unsetenv("OPERATOR_ID_MAIN")
	os.Unsetenv("OPERATOR_KEY_MAIN")

	_, err := Load()
	require.Error(t, err)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
}

func TestSensitiveEntriesAreMaskedOnExport(t *testing.T) {
	Reset()
	os.Setenv("HEDERA_NETWORK", "testnet")
	os.Setenv("MIRROR_NODE_URL", "https://testnet.mirrornode.hedera.com")
	os.Setenv("READ_ONLY", "false")
	os.Setenv("OPERATOR_ID_MAIN", "0.0.1001")
	os.Setenv("OPERATOR_KEY_MAIN", "302e020100300506032b6570")
	defer os.Unsetenv("HEDERA_NETWORK")
	defer os.Unsetenv("MIRROR_NODE_URL")
	defer os.Unsetenv("READ_ONLY")
	defer os.Unsetenv("OPERATOR_ID_MAIN")
	defer os.Unsetenv("OPERATOR_KEY_MAIN")

	r, err := Load()
	require.NoError(t, err)
	exported := r.Export()
	require.Equal(t, "***", exported["OPERATOR_KEY_MAIN"])
	require.Equal(t, "0.0.1001", exported["OPERATOR_ID_MAIN"])
}
