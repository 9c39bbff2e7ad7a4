package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  port: 38471
discovery:
  max_targets_per_run: 5
  max_rows_per_target: 3
  min_delay_seconds: 2
  max_delay_seconds: 4
apollo:
  daily_cap: 30
linkedin:
  identities:
    - email: a@example.com
      daily_cap: 10
    - email: b@example.com
      daily_cap: 10
email:
  enabled: true
  imap_host: imap.gmail.com
  imap_port: 993
  username: me@gmail.com
  mailbox: INBOX
  poll_seconds: 900
  subject_any: ["job alert", " Job Alert ", ""]
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTemp(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 38471, cfg.App.Port)
	assert.Equal(t, 30, cfg.Apollo.DailyCap)
	require.Len(t, cfg.LinkedIn.Identities, 2)
	assert.Equal(t, "a@example.com", cfg.LinkedIn.Identities[0].Email)
	assert.Equal(t, 10, cfg.LinkedIn.Identities[0].DailyCap)
}

func TestNormalizeAndValidateOK(t *testing.T) {
	cfg, err := Load(writeTemp(t, sampleYAML))
	require.NoError(t, err)

	out, vr := NormalizeAndValidate(cfg)
	assert.True(t, vr.OK(), "errors: %v", vr.Errors)
	// duplicates and blanks pruned from subject filters
	assert.Equal(t, []string{"job alert"}, out.Email.SubjectAny)
}

func TestValidateRejectsTooManyIdentities(t *testing.T) {
	var cfg Config
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"} {
		cfg.LinkedIn.Identities = append(cfg.LinkedIn.Identities, IdentityCfg{Email: email, DailyCap: 5})
	}
	_, vr := NormalizeAndValidate(cfg)
	require.False(t, vr.OK())
	assert.Contains(t, vr.Errors[0], "at most 3")
}

func TestValidateIdentityFields(t *testing.T) {
	var cfg Config
	cfg.LinkedIn.Identities = []IdentityCfg{
		{Email: "", DailyCap: 10},
		{Email: "a@x.com", DailyCap: 0},
		{Email: "b@x.com", DailyCap: 40},
	}
	_, vr := NormalizeAndValidate(cfg)
	assert.False(t, vr.OK())
	assert.Len(t, vr.Errors, 2)
	require.Len(t, vr.Warnings, 1)
	assert.Contains(t, vr.Warnings[0], "risky")
}

func TestValidateDelayBounds(t *testing.T) {
	var cfg Config
	cfg.Discovery.MinDelaySeconds = 5
	cfg.Discovery.MaxDelaySeconds = 2
	_, vr := NormalizeAndValidate(cfg)
	require.False(t, vr.OK())
	assert.Contains(t, vr.Errors[0], "min_delay_seconds")
}

func TestValidateEmailRequiresFieldsWhenEnabled(t *testing.T) {
	var cfg Config
	cfg.Email.Enabled = true
	_, vr := NormalizeAndValidate(cfg)
	assert.False(t, vr.OK())
	assert.GreaterOrEqual(t, len(vr.Errors), 3)
}

func TestEnsureUserConfigCopiesOnce(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := writeTemp(t, sampleYAML)

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	// edit the user copy, rerun bootstrap, edit must survive
	require.NoError(t, os.WriteFile(userPath, []byte("app:\n  port: 9999\n"), 0o600))
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, userPath, again)

	cfg, err := Load(userPath)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.App.Port)
}
