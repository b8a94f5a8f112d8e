package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("my-registry")
	assert.Equal(t, "my-registry", cfg.Meta.Name)
	assert.False(t, cfg.IsMirror())
	assert.True(t, cfg.Access.GitUploadPack)
	assert.True(t, cfg.Access.GitReceivePack)
	assert.Equal(t, "localhost", cfg.HTTP.Domain)
	assert.Equal(t, uint16(80), cfg.HTTP.Port)
}

func TestConfig_BaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "http default port omitted",
			cfg:  Config{Meta: MetaConfig{Name: "r"}, HTTP: HTTPConfig{Domain: "example.com", Port: 80}},
			want: "http://example.com/r",
		},
		{
			name: "http non-default port shown",
			cfg:  Config{Meta: MetaConfig{Name: "r"}, HTTP: HTTPConfig{Domain: "example.com", Port: 8080}},
			want: "http://example.com:8080/r",
		},
		{
			name: "https default port omitted",
			cfg:  Config{Meta: MetaConfig{Name: "r"}, HTTP: HTTPConfig{Domain: "example.com", Port: 443, SSL: true}},
			want: "https://example.com/r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.BaseURL())
		})
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "registry.toml")

	want := DefaultConfig("roundtrip")
	want.Mirror = &MirrorConfig{Source: "https://example.com/index.git", Sync: true}

	require.NoError(t, SaveConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want.Meta.Name, got.Meta.Name)
	assert.True(t, got.IsMirror())
	assert.Equal(t, want.Mirror.Source, got.Mirror.Source)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	var cfg *Config
	require.Error(t, cfg.Validate())

	empty := &Config{}
	require.Error(t, empty.Validate())

	named := &Config{Meta: MetaConfig{Name: "ok"}}
	require.NoError(t, named.Validate())
}
