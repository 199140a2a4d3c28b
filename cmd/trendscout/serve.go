package main

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/trendscout/config"
	"github.com/mohammad-safakhou/trendscout/internal/agent/core"
	"github.com/mohammad-safakhou/trendscout/internal/agent/telemetry"
	srv "github.com/mohammad-safakhou/trendscout/internal/server"
	"github.com/mohammad-safakhou/trendscout/internal/session"
	openai_provider "github.com/mohammad-safakhou/trendscout/provider/openai"
	"github.com/mohammad-safakhou/trendscout/tools/discovery"
)

// unconfiguredLLM stands in when no API key is present. Every call fails,
// which the pipeline absorbs through its stage-local fallbacks.
type unconfiguredLLM struct{}

func (unconfiguredLLM) Complete(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("llm provider not configured (set OPENAI_API_KEY)")
}

func serveCMD() *cobra.Command {
	var serveAddr string
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}

			logger := log.New(log.Writer(), "[WORKFLOW] ", log.LstdFlags)

			var llm core.LLMProvider
			if cfg.LLM.APIKey != "" {
				llm = openai_provider.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout)
			} else {
				logger.Printf("no LLM API key configured; running on fallbacks only")
				llm = unconfiguredLLM{}
			}

			var discoverers []discovery.Discoverer
			if cfg.Discovery.TavilyAPIKey != "" {
				d, err := discovery.NewDiscoverer(discovery.TavilyProvider, cfg.Discovery.TavilyAPIKey)
				if err != nil {
					return err
				}
				discoverers = append(discoverers, d)
			}
			if cfg.Discovery.RedditEnabled {
				d, err := discovery.NewDiscoverer(discovery.RedditProvider, "")
				if err != nil {
					return err
				}
				discoverers = append(discoverers, d)
			}

			sessions, err := session.NewStore(cfg.Session)
			if err != nil {
				return err
			}

			tele := telemetry.NewTelemetry(cfg.Telemetry, log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags))
			workflow := core.NewWorkflow(cfg, logger, llm, discoverers, sessions, tele)

			httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
			return srv.New(cfg, workflow, sessions, httpLogger).Run()
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return serve
}
