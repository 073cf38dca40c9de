package commands

import (
	"bytes"
	"context"
	"testing"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	"ideascentral/internal/store"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cfg     *config.Config
	auth    *services.AuthService
	records *services.RecordService
	logger  *observability.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		IsTest:   true,
		Store:    config.StoreConfig{Backend: config.StoreBackendMemory},
		Database: config.DatabaseConfig{URL: "postgres://ideas:hunter2@db:5432/ideas?sslmode=disable"},
	}
	logger := observability.NewNopLogger()
	st, err := store.New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return &fixture{
		cfg:     cfg,
		auth:    services.NewAuthService(st, cfg, logger),
		records: services.NewRecordService(st, logger, nil),
		logger:  logger,
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	original := readPassword
	t.Cleanup(func() { readPassword = original })
	readPassword = func() ([]byte, error) {
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func TestUserCreateAndList(t *testing.T) {
	f := newFixture(t)
	stubPasswords(t, "faculty-pass-1", "faculty-pass-1")

	out, err := execute(t, UserCommands(f.auth, f.logger),
		"create", "--email", "Quinn@Uni.edu", "--first-name", "Avery", "--last-name", "Quinn", "--role", "Faculty", "--department", "Physics")
	require.NoError(t, err)
	assert.Contains(t, out, "Created faculty quinn@uni.edu")

	out, err = execute(t, UserCommands(f.auth, f.logger), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "quinn@uni.edu")
	assert.Contains(t, out, "Avery Quinn")
	assert.Contains(t, out, "Physics")
}

func TestUserCreate_PasswordMismatch(t *testing.T) {
	f := newFixture(t)
	stubPasswords(t, "first-password", "second-password")

	_, err := execute(t, UserCommands(f.auth, f.logger),
		"create", "--email", "a@uni.edu", "--first-name", "A", "--last-name", "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")

	users, err := f.auth.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.CreateUser(ctx, models.NewUser{Email: "quinn@uni.edu", Password: "original-pass", FirstName: "Avery", LastName: "Quinn"})
	require.NoError(t, err)

	stubPasswords(t, "replacement-pass", "replacement-pass")
	out, err := execute(t, UserCommands(f.auth, f.logger), "reset-password", "Quinn@Uni.edu")
	require.NoError(t, err)
	assert.Contains(t, out, "Password updated for Quinn@Uni.edu")

	_, err = f.auth.Authenticate(ctx, "quinn@uni.edu", "replacement-pass")
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, "quinn@uni.edu", "original-pass")
	assert.Error(t, err)
}

func TestUserResetPassword_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.CreateUser(ctx, models.NewUser{Email: "quinn@uni.edu", Password: "original-pass", FirstName: "Avery", LastName: "Quinn"})
	require.NoError(t, err)

	t.Run("mismatch keeps old password", func(t *testing.T) {
		stubPasswords(t, "replacement-pass", "other-pass")
		_, err := execute(t, UserCommands(f.auth, f.logger), "reset-password", "quinn@uni.edu")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "passwords do not match")

		_, err = f.auth.Authenticate(ctx, "quinn@uni.edu", "original-pass")
		require.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		stubPasswords(t, "replacement-pass", "replacement-pass")
		_, err := execute(t, UserCommands(f.auth, f.logger), "reset-password", "nobody@uni.edu")
		require.Error(t, err)
	})

	t.Run("email argument required", func(t *testing.T) {
		_, err := execute(t, UserCommands(f.auth, f.logger), "reset-password")
		assert.Error(t, err)
	})
}

func TestUserCreate_RequiresFlags(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, UserCommands(f.auth, f.logger), "create", "--email", "a@uni.edu")
	assert.Error(t, err)
}

func TestUserList_Empty(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, UserCommands(f.auth, f.logger), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No users found")
}

func TestDatabaseInfo_MasksCredentials(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, DatabaseCommands(f.cfg, f.auth, f.records, f.logger), "info")
	require.NoError(t, err)
	assert.Contains(t, out, "memory")
	assert.Contains(t, out, "db:5432")
	assert.NotContains(t, out, "hunter2")
}

func TestDatabaseStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.CreateUser(ctx, models.NewUser{Email: "s@uni.edu", Password: "student-pass", FirstName: "S", LastName: "T"})
	require.NoError(t, err)

	out, err := execute(t, DatabaseCommands(f.cfg, f.auth, f.records, f.logger), "stats")
	require.NoError(t, err)
	assert.Regexp(t, `users\s+1`, out)
	assert.Regexp(t, `users\.student\s+1`, out)
	assert.Regexp(t, `problems\s+0`, out)
	assert.Regexp(t, `ideas\.pending\s+0`, out)
}

func TestClassifyCommand(t *testing.T) {
	out, err := execute(t, ClassifyCommand(services.NewKeywordClassifier()),
		"Parking near the engineering building is impossible and traffic on the main road backs up every morning")
	require.NoError(t, err)
	assert.Contains(t, out, "Category:   transportation")
	assert.Contains(t, out, "traffic, parking, road")
}

func TestClassifyCommand_RequiresText(t *testing.T) {
	_, err := execute(t, ClassifyCommand(services.NewKeywordClassifier()))
	assert.Error(t, err)
}

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t, "not configured", maskDatabaseURL(""))
	assert.Equal(t, "postgres://***:***@db:5432/ideas", maskDatabaseURL("postgres://u:p@db:5432/ideas?sslmode=disable"))
	assert.Equal(t, "[INVALID]", maskDatabaseURL("not a url"))
}
