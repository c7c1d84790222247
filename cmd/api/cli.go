package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Egham-7/oracle-proxy/internal/api"
	"github.com/Egham-7/oracle-proxy/internal/config"
	"github.com/Egham-7/oracle-proxy/internal/models"
	"github.com/Egham-7/oracle-proxy/internal/services/attemptlog"
	"github.com/Egham-7/oracle-proxy/internal/services/credentials"
	"github.com/Egham-7/oracle-proxy/internal/services/dispatcher"
	"github.com/Egham-7/oracle-proxy/internal/services/downstream"
	"github.com/Egham-7/oracle-proxy/internal/services/response"
	pkgconfig "github.com/Egham-7/oracle-proxy/pkg/config"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgPath  string
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "oracle-proxy",
		Short:         "Token-rotating proxy for hosted text generation",
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVarP(&opts.cfgPath, "config", "c", "config.yaml", "config yaml path (skipped when missing)")
	fs.StringSliceVar(&opts.envFiles, "env-file", config.DefaultEnvFiles, "env files to load, first wins")

	cmd.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
	)
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Run one dispatch and print the downstream payload",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runGenerate(cmd, cfg, strings.Join(args, " "))
		},
	}
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	for _, f := range config.LoadEnvFiles(opts.envFiles) {
		fiberlog.Debugf("Loaded env file %s", f)
	}

	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	return pkgconfig.NewProxy(cfg).Run()
}

// runGenerate prints the payload on success. On failure it prints the same
// {error, details?} body the HTTP endpoint would send and returns the error.
func runGenerate(cmd *cobra.Command, cfg *config.Config, prompt string) error {
	client := downstream.NewClient(cfg.Dispatch.Endpoint)
	defer client.Close()

	d := dispatcher.New(
		credentials.Parse(cfg.Dispatch.Tokens),
		client,
		dispatcher.Config{Timeout: cfg.DispatchTimeout(), Parameters: cfg.Dispatch.Parameters()},
		attemptlog.ObserverFunc(attemptlog.Write),
	)

	res, err := d.Dispatch(context.Background(), prompt)
	if err != nil {
		appErr := models.AsAppError(err)
		body, _ := json.Marshal(response.ErrorResponse{Error: appErr.Message, Details: appErr.Details})
		fmt.Fprintln(cmd.ErrOrStderr(), string(body))
		return fmt.Errorf("generate failed with status %d: %w", appErr.GetStatusCode(), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(res.Payload))
	return nil
}
