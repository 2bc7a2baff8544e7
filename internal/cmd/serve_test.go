package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestEnv(t *testing.T, db string) *environment {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	initConfig()
	viper.Set("database.path", db)
	viper.Set("user", "alice")

	env, err := openEnv(context.Background())
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env
}

func TestRefreshPlanStopsWithContext(t *testing.T) {
	db := isolate(t)
	seed(t, db)
	env := openTestEnv(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- refreshPlan(ctx, env, 10*time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("refreshPlan did not stop")
	}
}

func TestRefreshPlanWithoutInterval(t *testing.T) {
	env := openTestEnv(t, isolate(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, refreshPlan(ctx, env, 0))
}

func TestOpenEnvLoadsStoredState(t *testing.T) {
	db := isolate(t)
	seed(t, db)
	env := openTestEnv(t, db)

	assert.Equal(t, 5, env.svc.Store().Len())
	assert.Equal(t, "alice", env.svc.DefaultUser())
	assert.Equal(t, "default", env.svc.Organization())
	assert.Zero(t, env.svc.Pending())
}
