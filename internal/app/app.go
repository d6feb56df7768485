// Package app wires configuration into the HTTP handler shared by the
// standalone server and the Lambda entrypoint.
package app

import (
	"context"
	"fmt"
	"net/http"

	"survey-relay-service/internal/config"
	"survey-relay-service/internal/handlers"
	"survey-relay-service/internal/logger"
	"survey-relay-service/internal/routes"
	"survey-relay-service/internal/services"
	"survey-relay-service/internal/store"
	"survey-relay-service/internal/survey"
)

// LoadDataset picks the survey source: postgres, then a JSON file, then the
// bundled sample.
func LoadDataset(ctx context.Context, cfg config.Config, log logger.Logger) (*survey.Dataset, error) {
	switch {
	case cfg.SurveyDatabaseURL != "":
		db, err := store.Connect(ctx, cfg.SurveyDatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect survey database: %w", err)
		}
		defer db.Close()
		ds, err := store.NewPostgresStore(db, cfg.SurveyTable).LoadDataset(ctx)
		if err != nil {
			return nil, err
		}
		log.Info("survey data loaded", map[string]interface{}{"source": "postgres", "table": cfg.SurveyTable, "responses": ds.Len()})
		return ds, nil
	case cfg.SurveyDataPath != "":
		ds, err := survey.LoadFile(cfg.SurveyDataPath)
		if err != nil {
			return nil, err
		}
		log.Info("survey data loaded", map[string]interface{}{"source": "file", "path": cfg.SurveyDataPath, "responses": ds.Len()})
		return ds, nil
	default:
		ds, err := survey.Bundled()
		if err != nil {
			return nil, err
		}
		log.Info("survey data loaded", map[string]interface{}{"source": "bundled", "responses": ds.Len()})
		return ds, nil
	}
}

// NewCompleter returns the mock completer in mock mode, otherwise the
// configured provider.
func NewCompleter(ctx context.Context, cfg config.Config, hc *http.Client, log logger.Logger) (services.Completer, error) {
	if cfg.MockMode {
		log.Warn("mock mode enabled, completions are canned", nil)
		return services.MockCompleter{}, nil
	}
	switch cfg.CompletionProvider {
	case config.ProviderBedrock:
		bc, err := services.NewBedrockClient(ctx, cfg.AWSRegion, cfg.BedrockModelID)
		if err != nil {
			return nil, err
		}
		return bc, nil
	default:
		if cfg.AnthropicAPIKey == "" {
			log.Warn("ANTHROPIC_API_KEY not set, requests must carry apiKey", nil)
		}
		return &services.AnthropicClient{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
			Version: cfg.AnthropicVersion,
			HTTP:    hc,
		}, nil
	}
}

// NewHandler builds the full HTTP surface. The local engine always serves
// /survey-query; the relay's tool calls go to QUERY_ENGINE_URL when set.
func NewHandler(ctx context.Context, cfg config.Config, log logger.Logger) (http.Handler, error) {
	ds, err := LoadDataset(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	engine := survey.NewEngine(ds, survey.WithSampleColumn(cfg.SurveySampleColumn))

	hc := &http.Client{Timeout: cfg.HTTPTimeout}

	var queries services.QueryRunner = engine
	if cfg.QueryEngineURL != "" {
		queries = &services.GatewayClient{
			BaseURL: cfg.QueryEngineURL,
			APIKey:  cfg.QueryEngineAPIKey,
			HTTP:    hc,
			Logger:  log,
		}
	}

	completer, err := NewCompleter(ctx, cfg, hc, log)
	if err != nil {
		return nil, err
	}
	catalog, err := services.DefaultToolCatalog()
	if err != nil {
		return nil, err
	}

	chatSvc := &services.ChatService{
		Completer: completer,
		Queries:   queries,
		Catalog:   catalog,
		MaxTokens: cfg.MaxTokens,
		Logger:    log,
	}

	chatHandlers := &handlers.ChatHandlers{Chat: chatSvc, Logger: log}
	queryHandlers := &handlers.QueryHandlers{Engine: engine}

	return routes.NewRouter(cfg, log, chatHandlers, queryHandlers), nil
}
