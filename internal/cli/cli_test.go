package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/Olprog59/go-freightdesk/internal/cli"
	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/dto"
	"github.com/Olprog59/go-freightdesk/internal/service/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Environment: "development",
		Database: config.DatabaseConfig{
			Type:           "sqlite",
			DSN:            filepath.Join(dir, "freightdesk.db"),
			MigrationsPath: filepath.Join("..", "..", "migrations", "sqlite"),
		},
		Backup: config.BackupConfig{Path: filepath.Join(dir, "backups"), RetentionDays: 7},
		Auth: config.AuthConfig{
			JWTSecret:           "test-secret-key-min-32-chars-long-1234567890",
			Issuer:              "freightdesk",
			AccessTokenDuration: 10 * time.Minute,
		},
		Records: config.DefaultRecordsConfig(),
	}
}

// opener gives every container its own registry
func opener(cfg *config.Config, opts ...app.Option) (*app.Container, error) {
	return app.NewContainer(cfg, append(opts, app.WithRegistry(prometheus.NewRegistry()))...)
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCommand(cfg, opener)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

// seed creates clients through the service and returns their ids
func seed(t *testing.T, cfg *config.Config, clients ...*domain.Client) []string {
	t.Helper()
	c, err := opener(cfg)
	require.NoError(t, err)
	defer c.Close()

	ids := make([]string, 0, len(clients))
	for _, data := range clients {
		created, err := c.ClientSvc.Create(t.Context(), data, "seed")
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	return ids
}

func company(name, email, country string) *domain.Client {
	return &domain.Client{
		ClientType:  domain.ClientTypeBusiness,
		ContactInfo: domain.ContactInfo{Email: email, Address: domain.Address{City: "Lyon", Country: country}},
		BusinessInfo: &domain.BusinessInfo{
			CompanyName: name,
			Industry:    "logistics",
			Contacts:    []domain.ContactPerson{{FirstName: "Lea", LastName: "Martin", IsPrimary: true, IsActive: true}},
		},
	}
}

func TestMigrate(t *testing.T) {
	cfg := testConfig(t)

	steps := []struct {
		args        []string
		wantVersion uint
	}{
		{[]string{"migrate", "status"}, 0},
		{[]string{"migrate", "up"}, 2},
		{[]string{"migrate", "down", "--steps", "1"}, 1},
		{[]string{"migrate", "up"}, 2},
	}

	for _, step := range steps {
		out, err := run(t, cfg, append(step.args, "-o", "json")...)
		require.NoError(t, err, strings.Join(step.args, " "))

		var status app.MigrationStatus
		require.NoError(t, json.Unmarshal([]byte(out), &status))
		assert.Equal(t, step.wantVersion, status.Version, strings.Join(step.args, " "))
		assert.False(t, status.Dirty)
	}

	_, err := run(t, cfg, "migrate", "down", "--steps", "0")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "token", "agent-7", "--name", "Agent Seven", "-o", "json")
	require.NoError(t, err)

	var resp dto.TokenResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "agent-7", resp.Subject)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), resp.ExpiresAt, time.Minute)

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	require.NoError(t, err)
	userID, err := verifier.ActingUser(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "agent-7", userID)

	// YAML is the default output
	out, err = run(t, cfg, "token", "agent-7", "--ttl", "1h")
	require.NoError(t, err)
	var fromYAML dto.TokenResponse
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, "agent-7", fromYAML.Subject)

	_, err = run(t, cfg, "token", "agent-7", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestSearchAndShow(t *testing.T) {
	cfg := testConfig(t)
	ids := seed(t, cfg,
		company("Transports Rhone", "rhone@example.fr", "FR"),
		company("Spedition Elbe", "elbe@example.de", "DE"),
	)

	out, err := run(t, cfg, "search", "--country", "FR", "--facets", "-o", "json")
	require.NoError(t, err)
	var res domain.SearchResults
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Clients, 1)
	assert.Equal(t, ids[0], res.Clients[0].ID)
	require.NotNil(t, res.Facets)

	out, err = run(t, cfg, "search", "elbe", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.TotalCount)

	_, err = run(t, cfg, "search", "--sort-by", "shoe_size")
	assert.Error(t, err)

	out, err = run(t, cfg, "show", ids[1])
	require.NoError(t, err)
	var detail map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "Spedition Elbe", detail["display_name"])

	_, err = run(t, cfg, "show", "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestBatch(t *testing.T) {
	cfg := testConfig(t)
	ids := seed(t, cfg,
		company("Transports Rhone", "rhone@example.fr", "FR"),
		company("Spedition Elbe", "elbe@example.de", "DE"),
	)

	out, err := run(t, cfg, "batch", "--as", "ops-1", "--operation", "add_tags",
		"--ids", strings.Join(ids, ","), "--tags", "export", "-o", "json")
	require.NoError(t, err)
	var res domain.BatchOperationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.SuccessCount)

	// The operation comes from a YAML file, the force flag is overridden
	file := filepath.Join(t.TempDir(), "suspend.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
operation: change_status
client_ids:
  - `+ids[0]+`
  - ghost
data:
  status: suspended
force: true
`), 0o600))

	_, err = run(t, cfg, "batch", "-f", file, "--reason", "unpaid invoices")
	require.ErrorContains(t, err, "--reason only applies to delete")

	out, err = run(t, cfg, "batch", "-f", file, "--force=true", "-o", "json")
	require.ErrorContains(t, err, "1 of 2 item(s) failed")
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, []string{ids[0]}, res.SuccessIDs)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, domain.CodeNotFound, res.Errors[0].ErrorCode)

	out, err = run(t, cfg, "show", ids[0], "-o", "json")
	require.NoError(t, err)
	var detail domain.ClientDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, domain.ClientStatusSuspended, detail.Client.Status)
	assert.Equal(t, []string{"export"}, detail.Client.Tags)

	_, err = run(t, cfg, "batch", "--operation", "explode", "--ids", ids[0])
	assert.Error(t, err)
}

func TestBackup(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, company("Transports Rhone", "rhone@example.fr", "FR"))

	out, err := run(t, cfg, "backup", "-o", "json")
	require.NoError(t, err)

	var report struct {
		Path    string `json:"path"`
		Removed int    `json:"removed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.FileExists(t, report.Path)
	assert.Zero(t, report.Removed)
}
