package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("Happy path - defaults with memory store", func(t *testing.T) {
		t.Setenv("QUICKPOLL_STORE_DRIVER", "memory")

		conf, err := Read(New(t.TempDir()))
		require.NoError(t, err)

		assert.Equal(t, 5000, conf.Server.Port)
		assert.Equal(t, "release", conf.Server.Mode)
		assert.Equal(t, 5*time.Second, conf.Server.ShutdownTimeout)
		assert.Equal(t, "quickpoll", conf.Database.Name)
		assert.Equal(t, 10*time.Second, conf.Database.Timeout)
		assert.Equal(t, DriverMemory, conf.Store.Driver)
		assert.Equal(t, "info", conf.Log.Level)
		assert.Equal(t, []string{"*"}, conf.CORS.Origins)
	})

	t.Run("Happy path - DATABASE_URL is honoured", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "mongodb://localhost:27017")

		conf, err := Read(New(t.TempDir()))
		require.NoError(t, err)
		assert.Equal(t, DriverMongo, conf.Store.Driver)
		assert.Equal(t, "mongodb://localhost:27017", conf.Database.URI)
	})

	t.Run("Happy path - config file and env override", func(t *testing.T) {
		dir := t.TempDir()
		yaml := []byte("server:\n  port: 7000\ndatabase:\n  uri: mongodb://db:27017\n  name: polls\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
		t.Setenv("QUICKPOLL_SERVER_PORT", "8081")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("QUICKPOLL_DATABASE_URI", "")

		conf, err := Read(New(dir))
		require.NoError(t, err)
		assert.Equal(t, 8081, conf.Server.Port)
		assert.Equal(t, "mongodb://db:27017", conf.Database.URI)
		assert.Equal(t, "polls", conf.Database.Name)
	})

	t.Run("Unhappy path - mongo without uri", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("QUICKPOLL_DATABASE_URI", "")

		_, err := Read(New(t.TempDir()))
		assert.Error(t, err)
	})

	t.Run("Unhappy path - unknown driver", func(t *testing.T) {
		t.Setenv("QUICKPOLL_STORE_DRIVER", "postgres")

		_, err := Read(New(t.TempDir()))
		assert.ErrorContains(t, err, "unknown store driver")
	})
}
