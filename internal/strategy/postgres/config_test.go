package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/branchstack/engine/pkg/errors"
)

func TestConnectionStringRequired(t *testing.T) {
	for _, configuration := range []map[string]any{
		nil,
		{},
		{"connectionString": 42},
		{"connectionString": ""},
	} {
		_, err := connectionString(configuration)
		require.Error(t, err)
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	}

	cs, err := connectionString(map[string]any{"connectionString": "postgres://localhost:5432/app"})
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost:5432/app", cs)
}

func TestDatabaseURLSwapsDatabase(t *testing.T) {
	u, err := databaseURL("postgres://user:pw@localhost:5432/app?sslmode=disable", "app_branch")
	require.NoError(t, err)
	require.Equal(t, "postgres://user:pw@localhost:5432/app_branch?sslmode=disable", u)
}

func TestStrategiesRejectMissingConfiguration(t *testing.T) {
	ctx := context.Background()

	err := DumpRestore{}.Create(ctx, "b1", "tpl", nil)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	err = DumpRestore{}.Delete(ctx, "b1", nil)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	err = TemplateClone{}.Create(ctx, "b1", "tpl", nil)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	err = TemplateClone{}.Delete(ctx, "b1", nil)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}
