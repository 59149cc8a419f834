package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cpinzonpinto/bing-search-provision-test/pkg/agents"
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/auth"
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/config"
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/logging"
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/persistence"
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/session"
)

const version = "0.1.0"

type app struct {
	envFile    string
	logLevel   string
	question   string
	transcript string
	keepAgent  bool
	debug      bool
	maxRetries int

	logger        zerolog.Logger
	newCredential func(auth.Identity, zerolog.Logger) (azcore.TokenCredential, error)
	httpClient    *http.Client
}

func newApp(stderr io.Writer) *app {
	return &app{
		logger:        logging.New(logging.Config{Out: stderr}),
		newCredential: auth.NewCredential,
	}
}

func execute(args []string, stdout, stderr io.Writer) int {
	a := newApp(stderr)
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return a.exitCode(cmd.Execute(), stderr)
}

func (a *app) exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var missing *config.MissingError
	if errors.As(err, &missing) {
		fmt.Fprintln(stderr, missing)
	} else {
		a.logger.Error().Err(err).Msg("bing-agent failed")
	}
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bing-agent",
		Short: "Ask a Bing grounded Azure AI agent one question",
		Long: `bing-agent creates an agent with the Grounding with Bing Search tool in an
Azure AI Foundry project, asks it one question, prints the answer with its
citations and the run steps, and deletes the agent again.

Settings come from the environment and from a .env file in the working
directory: PROJECT_ENDPOINT, MODEL_DEPLOYMENT_NAME and BING_CONNECTION_ID are
required.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger = logging.New(logging.Config{Level: a.logLevel, Out: cmd.ErrOrStderr()})
		},
		RunE: a.run,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	f := cmd.Flags()
	f.StringVar(&a.envFile, "env-file", "", "load settings from this file instead of ./.env")
	f.StringVarP(&a.question, "question", "q", "", "question to ask (overrides "+config.EnvQuestion+")")
	f.BoolVar(&a.keepAgent, "keep-agent", false, "do not delete the agent afterwards (same as "+config.EnvKeepAgent+")")
	f.StringVar(&a.transcript, "transcript", "", "save the session transcript as YAML to this file")
	f.BoolVar(&a.debug, "debug", false, "dump HTTP requests and responses to stderr")
	f.IntVar(&a.maxRetries, "max-retries", 0, "retries for failed requests (overrides "+config.EnvMaxRetries+")")

	cmd.AddCommand(a.showCmd())
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TRANSCRIPT",
		Short: "Print a transcript saved with --transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := persistence.LoadTranscript(args[0])
			if err != nil {
				return fmt.Errorf("load transcript: %w", err)
			}
			(&session.Printer{W: cmd.OutOrStdout()}).Replay(res)
			if res.Error != "" {
				a.logger.Warn().Str("stage", res.Stage.String()).Str("error", res.Error).Msg("session ended early")
			}
			return nil
		},
	}
}

func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return nil, err
	}
	v, err := config.NewViper()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("question") {
		cfg.Question = a.question
	}
	if a.keepAgent {
		cfg.KeepAgent = true
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = a.maxRetries
	}
	return cfg, nil
}

func (a *app) run(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	cred, err := a.newCredential(cfg.Identity(), a.logger)
	if err != nil {
		return err
	}

	opts := []agents.Option{
		agents.WithAPIVersion(cfg.APIVersion),
		agents.WithPollInterval(cfg.PollInterval),
		agents.WithMaxRetries(cfg.MaxRetries),
		agents.WithLogger(a.logger),
		agents.WithRequestOptions(auth.RequestOption(cred)),
	}
	if a.httpClient != nil {
		opts = append(opts, agents.WithHTTPClient(a.httpClient))
	}
	if a.debug {
		opts = append(opts, agents.WithDebugLog(log.New(cmd.ErrOrStderr(), "", log.LstdFlags)))
	}

	client, err := agents.New(cfg.Endpoint, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := session.Run(ctx, client, session.Options{
		Model:        cfg.Model,
		AgentName:    cfg.AgentName,
		Instructions: cfg.Instructions,
		Tools:        cfg.Bing.Definitions(),
		Question:     cfg.Question,
		KeepAgent:    cfg.KeepAgent,
	}, cmd.OutOrStdout(), a.logger)

	if a.transcript != "" && res != nil {
		if serr := persistence.SaveTranscript(a.transcript, res); serr != nil {
			a.logger.Error().Err(serr).Str("file", a.transcript).Msg("saving transcript")
		}
	}
	return err
}
