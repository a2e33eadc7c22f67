package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/campaign-dialer/internal/api/rest"
)

func TestReadPhones(t *testing.T) {
	in := strings.NewReader("+12125550100\n\n# header comment\n  (212) 555-0101  \n")

	phones, err := readPhones(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"+12125550100", "(212) 555-0101"}, phones)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "scrub", "token"})

	migrate, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.Equal(t, "1", migrate.Flags().Lookup("steps").DefValue)
}

func TestTokenCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: postgres://localhost/dialer
security:
  jwt_secret: cli-secret
`), 0o600))

	orgID := uuid.New()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "token", "--org", orgID.String(), "--ttl", "1h"})
	require.NoError(t, root.Execute())

	claims := &rest.Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
		return []byte("cli-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, orgID.String(), claims.OrgID)
}

func TestTokenCmd_RequiresValidOrg(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--org", "nope"})
	assert.Error(t, root.Execute())
}
