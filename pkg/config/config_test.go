package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validYAML() []byte {
	return []byte(`
repository:
  url: http://repo:8080
  secret: my-secret
search:
  host: opensearch
indexer:
  cron: "@every 30s"
`)
}

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes(validYAML())
	require.NoError(t, err)

	assert.Equal(t, "http://repo:8080", cfg.Repository.URL)
	assert.Equal(t, "my-secret", cfg.Repository.Secret)
	assert.Equal(t, "@every 30s", cfg.Indexer.Cron)
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromBytes(validYAML())
	require.NoError(t, err)

	assert.Equal(t, "/alfresco/service/api/solr/", cfg.Repository.SolrPath)
	assert.Equal(t, SecureCommsSecret, cfg.Repository.SecureComms)
	assert.Equal(t, 9200, cfg.Search.Port)
	assert.Equal(t, "http", cfg.Search.Protocol)
	assert.Equal(t, "alfresco", cfg.Search.Index.Name)
	assert.Equal(t, "alfresco-control", cfg.Search.ControlIndex.Name)
	assert.Equal(t, 100, cfg.Indexer.Transaction.MaxResults)
	assert.Equal(t, 4, cfg.Indexer.Content.Threads)
	assert.Equal(t, ":8081", cfg.Admin.Addr)
}

func TestSearchAddress(t *testing.T) {
	cfg := &SearchConfig{}
	cfg.SetDefaults()
	assert.Equal(t, "http://localhost:9200", cfg.Address())

	cfg.Protocol = "https"
	cfg.Host = "search.internal"
	cfg.Port = 9443
	assert.Equal(t, "https://search.internal:9443", cfg.Address())
}

func TestRepositoryValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RepositoryConfig)
		wantErr string
	}{
		{
			name:    "missing url",
			mutate:  func(c *RepositoryConfig) { c.URL = "" },
			wantErr: "url is required",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *RepositoryConfig) { c.URL = "ftp://repo" },
			wantErr: "http:// or https://",
		},
		{
			name:    "secret mode without secret",
			mutate:  func(c *RepositoryConfig) { c.Secret = "" },
			wantErr: "secret is required",
		},
		{
			name: "https mode without keystore",
			mutate: func(c *RepositoryConfig) {
				c.SecureComms = SecureCommsHTTPS
			},
			wantErr: "keystore.path is required",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *RepositoryConfig) { c.SecureComms = "none" },
			wantErr: "unsupported secure_comms",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &RepositoryConfig{URL: "http://repo:8080", Secret: "s"}
			cfg.SetDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSearchValidationRejectsSameIndexNames(t *testing.T) {
	cfg := &SearchConfig{}
	cfg.SetDefaults()
	cfg.ControlIndex.Name = cfg.Index.Name

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SB_TEST_SECRET", "from-env")

	cfg, err := LoadFromBytes([]byte(`
repository:
  url: ${SB_TEST_URL:-http://fallback:8080}
  secret: ${SB_TEST_SECRET}
`))
	require.NoError(t, err)

	assert.Equal(t, "http://fallback:8080", cfg.Repository.URL)
	assert.Equal(t, "from-env", cfg.Repository.Secret)
}

func TestLoadFromBytesRejectsInvalid(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
repository:
  url: http://repo:8080
  secure_comms: bogus
`))
	assert.Error(t, err)
}
