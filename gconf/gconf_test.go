package gconf

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConf struct {
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

func (c *testConf) Marshal() ([]byte, error) { return json.Marshal(c) }
func (c *testConf) Unmarshal(b []byte) error { return json.Unmarshal(b, c) }

func (c *testConf) Validate() error {
	if c.Limit < 0 {
		return errors.Wrap(errors.ErrInput, "negative limit")
	}
	return nil
}

func TestSaveLoad(t *testing.T) {
	db := store.MemStore()

	var c testConf
	assert.True(t, errors.ErrNotFound.Is(Load(db, "mypkg", &c)))

	require.NoError(t, Save(db, "mypkg", &testConf{Name: "x", Limit: 3}))
	require.NoError(t, Load(db, "mypkg", &c))
	assert.Equal(t, testConf{Name: "x", Limit: 3}, c)

	assert.True(t, errors.ErrInput.Is(Save(db, "mypkg", &testConf{Limit: -1})))
}

func TestInitConfig(t *testing.T) {
	cases := map[string]struct {
		genesis     string
		withDefault bool
		want        testConf
		wantErr     *errors.Error
	}{
		"configuration from genesis": {
			genesis: `{"conf": {"mypkg": {"name": "a", "limit": 2}}}`,
			want:    testConf{Name: "a", Limit: 2},
		},
		"missing configuration": {
			genesis: `{"conf": {}}`,
			wantErr: errors.ErrNotFound,
		},
		"missing configuration uses defaults": {
			genesis:     `{}`,
			withDefault: true,
			want:        testConf{Name: "default", Limit: 10},
		},
		"genesis overrides defaults": {
			genesis:     `{"conf": {"mypkg": {"limit": 4}}}`,
			withDefault: true,
			want:        testConf{Name: "default", Limit: 4},
		},
		"invalid configuration": {
			genesis: `{"conf": {"mypkg": {"limit": -4}}}`,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts harvest.Options
			require.NoError(t, json.Unmarshal([]byte(tc.genesis), &opts))

			db := store.MemStore()
			conf := &testConf{Name: "default", Limit: 10}
			var err error
			if tc.withDefault {
				err = InitConfigWithDefault(db, opts, "mypkg", conf)
			} else {
				err = InitConfig(db, opts, "mypkg", conf)
			}
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			var got testConf
			require.NoError(t, Load(db, "mypkg", &got))
			assert.Equal(t, tc.want, got)
		})
	}
}
