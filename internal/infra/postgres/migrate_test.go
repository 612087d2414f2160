package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgxURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@db:5432/jobs?sslmode=disable", "pgx5://u:p@db:5432/jobs?sslmode=disable"},
		{"postgresql://u:p@db/jobs", "pgx5://u:p@db/jobs"},
		{"pgx5://u@db/jobs", "pgx5://u@db/jobs"},
	}
	for _, tt := range tests {
		got, err := pgxURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPgxURL_RejectsOtherSchemes(t *testing.T) {
	_, err := pgxURL("mysql://u@db/jobs")
	assert.ErrorContains(t, err, "mysql")
}
