package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hortiva/priceintel/internal/app"
	filecatalog "github.com/hortiva/priceintel/internal/catalog/file"
	"github.com/hortiva/priceintel/internal/config"
	"github.com/hortiva/priceintel/internal/pricing"
	pubmemory "github.com/hortiva/priceintel/internal/publisher/memory"
)

func withTestApp(t *testing.T, a *app.App) {
	t.Helper()
	orig := newApp
	newApp = func(context.Context) (*app.App, error) { return a, nil }
	t.Cleanup(func() { newApp = orig })
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestSourcesCommand(t *testing.T) {
	withTestApp(t, &app.App{
		Logger: zap.NewNop(),
		Sources: []pricing.ShopSource{
			{
				Name:               "growland",
				Domain:             "growland.net",
				SearchURLTemplates: []string{"https://www.growland.net/suche/{query}"},
				Enabled:            true,
			},
			{Name: "old-shop", Domain: "old.example", Enabled: false},
		},
	})

	out, err := runCommand(t, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "growland")
	assert.Contains(t, out, "growland.net")
	assert.Contains(t, out, "2 sources (1 enabled)")
}

func TestCrawlCommand_EmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte("[]"), 0o600))
	catalog, err := filecatalog.New(catalogPath)
	require.NoError(t, err)

	publisher := pubmemory.New()
	jsonPath := filepath.Join(dir, "report.json")
	csvPath := filepath.Join(dir, "report.csv")

	cfg := config.Config{}
	cfg.Report.JSONPath = jsonPath
	cfg.Report.CSVPath = csvPath
	cfg.PubSub.TopicName = "price-runs"

	withTestApp(t, &app.App{
		Config:    cfg,
		Logger:    zap.NewNop(),
		Catalog:   catalog,
		Publisher: publisher,
	})

	_, err = runCommand(t, "crawl")
	require.NoError(t, err)

	assert.FileExists(t, jsonPath)
	assert.FileExists(t, csvPath)

	messages := publisher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "price-runs", messages[0].Topic)
	event, ok := messages[0].Payload.(pricing.RunCompletedEvent)
	require.True(t, ok)
	assert.NotEmpty(t, event.RunID)
}
