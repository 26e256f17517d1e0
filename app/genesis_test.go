package app

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/harvest/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGenesis(t *testing.T) {
	dir, err := ioutil.TempDir("", "genesis")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	valid := filepath.Join(dir, "genesis.json")
	require.NoError(t, ioutil.WriteFile(valid, []byte(`{
		"chain_id": "harvest-devnet",
		"app_state": {"conf": {"vault": {"min_deposit": 10}}}
	}`), 0600))
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, ioutil.WriteFile(broken, []byte(`{"chain_id": `), 0600))

	gen, err := LoadGenesis(valid)
	require.NoError(t, err)
	assert.Equal(t, "harvest-devnet", gen.ChainID)
	assert.Contains(t, gen.AppState, "conf")

	cases := map[string]string{
		"missing file": filepath.Join(dir, "missing.json"),
		"broken json":  broken,
	}
	for testName, path := range cases {
		t.Run(testName, func(t *testing.T) {
			if _, err := LoadGenesis(path); !errors.ErrInput.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
