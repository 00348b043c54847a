package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector(t *testing.T) {
	d, err := Dialector("mysql", "user:pw@tcp(localhost:3306)/app")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = Dialector("postgres", "host=localhost user=u dbname=d sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector("sqlite", "file.db")
	assert.EqualError(t, err, `unsupported driver "sqlite"`)
}

func TestOptions_TranslatesErrors(t *testing.T) {
	assert.True(t, Options().TranslateError)
}
