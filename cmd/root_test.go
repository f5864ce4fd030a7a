package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/config"
)

func TestRootCommands(t *testing.T) {
	want := []string{"build", "news", "trials", "filings", "fetch", "profiles", "cache", "serve"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestSubcommands(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"profiles", "show"})
	require.NoError(t, err)
	assert.Equal(t, "show", cmd.Name())

	cmd, _, err = rootCmd.Find([]string{"cache", "purge"})
	require.NoError(t, err)
	assert.Equal(t, "purge", cmd.Name())
}

func TestBuildFlags(t *testing.T) {
	for _, name := range []string{"csv", "limit", "output-dir", "no-cache", "workers"} {
		assert.NotNil(t, buildCmd.Flags().Lookup(name), name)
	}
}

func TestWriteOutput(t *testing.T) {
	v := map[string]any{"name": "Acme", "count": 2}

	var js bytes.Buffer
	require.NoError(t, writeOutput(&js, "json", v))
	assert.JSONEq(t, `{"name":"Acme","count":2}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, writeOutput(&ym, "yaml", v))
	assert.Equal(t, "count: 2\nname: Acme\n", ym.String())

	assert.Error(t, writeOutput(&bytes.Buffer{}, "xml", v))
}

func TestApplyOverrides(t *testing.T) {
	c := &config.Config{
		Log:   config.LogConfig{Level: "info"},
		Store: config.StoreConfig{Driver: "file"},
		Cache: config.CacheConfig{Backend: "file"},
		News:  config.NewsConfig{Tiers: []string{"serpapi", "bing", "gdelt"}},
	}
	require.NoError(t, rootCmd.ParseFlags([]string{"--store", "sqlite", "--tiers", "gdelt,gnews"}))
	t.Cleanup(func() {
		flagStoreDriver, flagNewsTiers = "", nil
		rootCmd.PersistentFlags().Lookup("store").Changed = false
		rootCmd.PersistentFlags().Lookup("tiers").Changed = false
	})

	applyOverrides(rootCmd, c)

	assert.Equal(t, "sqlite", c.Store.Driver)
	assert.Equal(t, []string{"gdelt", "gnews"}, c.News.Tiers)
	assert.Equal(t, "info", c.Log.Level, "unset flags leave config alone")
	assert.Equal(t, "file", c.Cache.Backend)
}
