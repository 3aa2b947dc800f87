package migrator_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pseudomuto/steward/pkg/migrator"
	"github.com/stretchr/testify/require"
)

func noopUp(ctx context.Context, tx pgx.Tx) error {
	return nil
}

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		name         string
		declared     string
		expectedID   int64
		expectedName string
		expectError  string
	}{
		{
			name:         "conventional declaration",
			declared:     "_202401151230_create_users",
			expectedID:   202401151230,
			expectedName: "create_users",
		},
		{
			name:         "leading underscore optional",
			declared:     "202401151230_create_users",
			expectedID:   202401151230,
			expectedName: "create_users",
		},
		{
			name:         "name keeps embedded underscores",
			declared:     "_202401151230_add_index_to_users_email",
			expectedID:   202401151230,
			expectedName: "add_index_to_users_email",
		},
		{
			name:         "identifier not limited to timestamp shape",
			declared:     "_42_seed_reference_data",
			expectedID:   42,
			expectedName: "seed_reference_data",
		},
		{
			name:        "missing name segment",
			declared:    "_202401151230",
			expectError: "does not match",
		},
		{
			name:        "empty name segment",
			declared:    "_202401151230_",
			expectError: "missing a name",
		},
		{
			name:        "non-numeric identifier",
			declared:    "_abc_create_users",
			expectError: "non-numeric identifier",
		},
		{
			name:        "zero identifier",
			declared:    "_0_create_users",
			expectError: "positive identifier",
		},
		{
			name:        "negative identifier",
			declared:    "_-5_create_users",
			expectError: "positive identifier",
		},
		{
			name:        "double leading underscore",
			declared:    "__202401151230_create_users",
			expectError: "does not match",
		},
		{
			name:        "empty declaration",
			declared:    "",
			expectError: "does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name, err := migrator.ParseIdentity(tt.declared)

			if tt.expectError != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.expectError)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expectedID, id)
			require.Equal(t, tt.expectedName, name)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("valid migration", func(t *testing.T) {
		m, err := migrator.New(202401151230, "create_users", noopUp)
		require.NoError(t, err)
		require.Equal(t, int64(202401151230), m.ID)
		require.Equal(t, "create_users", m.Name)
		require.NotNil(t, m.Up)
	})

	t.Run("rejects non-positive identifier", func(t *testing.T) {
		_, err := migrator.New(0, "create_users", noopUp)
		require.Error(t, err)
		require.Contains(t, err.Error(), "must be positive")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := migrator.New(202401151230, "", noopUp)
		require.Error(t, err)
		require.Contains(t, err.Error(), "no name")
	})

	t.Run("rejects nil upgrade action", func(t *testing.T) {
		_, err := migrator.New(202401151230, "create_users", nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "no upgrade action")
	})
}

func TestNewNamed(t *testing.T) {
	t.Run("parses identity from declaration", func(t *testing.T) {
		m, err := migrator.NewNamed("_202401151230_create_users", noopUp)
		require.NoError(t, err)
		require.Equal(t, int64(202401151230), m.ID)
		require.Equal(t, "create_users", m.Name)
	})

	t.Run("propagates identity errors", func(t *testing.T) {
		_, err := migrator.NewNamed("create_users", noopUp)
		require.Error(t, err)
	})

	t.Run("propagates constructor errors", func(t *testing.T) {
		_, err := migrator.NewNamed("_202401151230_create_users", nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "no upgrade action")
	})
}

func TestMustNamed(t *testing.T) {
	t.Run("returns migration for valid declaration", func(t *testing.T) {
		m := migrator.MustNamed("_202401151230_create_users", noopUp)
		require.Equal(t, int64(202401151230), m.ID)
	})

	t.Run("panics on malformed declaration", func(t *testing.T) {
		require.Panics(t, func() {
			migrator.MustNamed("not-a-declaration", noopUp)
		})
	})
}
