package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/aduba/internal/domain/session"
	"github.com/yanqian/aduba/internal/infra/apiclient"
	"github.com/yanqian/aduba/internal/infra/sessionstore"
	"github.com/yanqian/aduba/pkg/logger"
)

type envKey struct{}

// env is what every subcommand needs: the API client and the session kept
// in the session file.
type env struct {
	logger *slog.Logger
	client *apiclient.Client
	holder *session.Holder
}

var (
	apiURL      string
	sessionFile string
	verbose     bool
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "adubactl",
	Short: "ADUBA - compost monitor client",
	Long: `adubactl signs in to an ADUBA backend, shows the composter readings
and keeps simulating new ones while the dashboard is open.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupEnv,
}

func init() {
	defaultSession, err := sessionstore.DefaultPath()
	if err != nil {
		defaultSession = sessionstore.StorageKey + ".json"
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&apiURL, "api", envOr("ADUBA_API", "http://localhost:3000"), "backend base URL")
	flags.StringVar(&sessionFile, "session-file", defaultSession, "where the signed-in session is kept")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "per request timeout")
}

func setupEnv(cmd *cobra.Command, _ []string) error {
	log := logger.NewConsole(os.Stderr, verbose)
	client := apiclient.New(apiclient.Config{BaseURL: apiURL, Timeout: timeout, RetryCount: 2}, log)
	holder := session.NewHolder(client, sessionstore.NewFileStore(sessionFile), log)
	client.UseTokens(holder)
	if err := holder.Restore(cmd.Context()); err != nil {
		log.Warn("stored session unreadable, continuing signed out", "error", err)
	}
	cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{logger: log, client: client, holder: holder}))
	return nil
}

func envFrom(cmd *cobra.Command) *env {
	return cmd.Context().Value(envKey{}).(*env)
}

// requireUser returns the signed-in session or a hint to sign in.
func requireUser(e *env) (session.Session, error) {
	s, ok := e.holder.CurrentUser()
	if !ok {
		return session.Session{}, errors.New("not signed in, run `adubactl signin` first")
	}
	return s, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
