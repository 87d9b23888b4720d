package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexsearch/lexsearch-core/internal/adapters/driven/auth"
	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

const testSecret = "cli-test-secret-0123456789"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute("test", args, &out, &errOut)
	return out.String(), err
}

func TestExecute_Version(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "lexsearch-core test\n", out)
}

func TestCronValidate(t *testing.T) {
	out, err := run(t, "cron", "validate", "0 3 * * *")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, err = run(t, "cron", "validate", "0 3 * *")
	assert.Error(t, err)

	_, err = run(t, "cron", "validate", "0 0 30 2 *")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "never fires")
}

func TestCronPreview(t *testing.T) {
	out, err := run(t, "cron", "preview", "0 3 * * *", "--from", "2026-01-01T00:00:00Z", "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01T03:00:00Z\n2026-01-02T03:00:00Z\n", out)

	_, err = run(t, "cron", "preview", "0 3 * * *", "--from", "yesterday")
	assert.Error(t, err)
}

func TestToken_IssuesVerifiableToken(t *testing.T) {
	t.Setenv("LEXSEARCH_AUTH_JWT_SECRET", testSecret)

	out, err := run(t, "token", "--subject", "ops", "--role", "Admin", "--log-level", "error")
	require.NoError(t, err)

	adapter, err := auth.NewAdapter(testSecret)
	require.NoError(t, err)
	principal, err := adapter.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", principal.Subject)
	assert.Equal(t, domain.RoleAdmin, principal.Role)
}

func TestToken_RequiresSecret(t *testing.T) {
	t.Setenv("LEXSEARCH_AUTH_JWT_SECRET", "")

	_, err := run(t, "token", "--log-level", "error")
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestToken_RejectsUnknownRole(t *testing.T) {
	t.Setenv("LEXSEARCH_AUTH_JWT_SECRET", testSecret)

	_, err := run(t, "token", "--role", "owner", "--log-level", "error")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServe_UnknownMode(t *testing.T) {
	_, err := run(t, "serve", "--mode", "batch")
	assert.ErrorContains(t, err, "unknown mode")
}

func TestImport_RequiresDirectory(t *testing.T) {
	_, err := run(t, "import")
	assert.Error(t, err)
}
