package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	"timetable-backend/cmd/timetable-cli/globals"
	"timetable-backend/internal/components/chrono"
	"timetable-backend/internal/components/telemetry"
	"timetable-backend/internal/db"
	"timetable-backend/internal/ingest"
	"timetable-backend/internal/scrapers/zdbk"
	"timetable-backend/internal/scrapers/zjuam"
	"timetable-backend/internal/sessioncache"
	"timetable-backend/internal/timetable"
	"timetable-backend/lib/configutil"
	"timetable-backend/lib/osutil"
	"timetable-backend/pkg/migrations"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var otel telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:                "timetable-cli",
	Short:              "timetable-cli fetches and stores the timetable of a ZJU student.",
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: shutdown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
}

func readConfig(path string) (Config, error) {
	config, err := configutil.ReadConfigOver(path, defaultConfig())
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "path", path)
		return config, nil
	}
	return config, err
}

func setup(cmd *cobra.Command, args []string) error {
	telemetry.InitSlog(verbose)

	var err error
	otel, err = telemetry.SetupFromEnv(cmd.Context(), "timetable-cli")
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	config, err := readConfig(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	tel := telemetry.SlogAPI{}
	clock, err := chrono.NewStandardImpl(config.Calendar.Timezone)
	if err != nil {
		return fmt.Errorf("calendar timezone: %w", err)
	}
	calendar, err := timetable.NewCalendar(config.Calendar, clock.Location())
	if err != nil {
		return fmt.Errorf("calendar: %w", err)
	}
	cache, err := sessioncache.New(config.Session.Size, clock)
	if err != nil {
		return err
	}

	timeout := time.Duration(config.Upstream.TimeoutSeconds) * time.Second
	sso := zjuam.NewClient(zjuam.Options{
		BaseUrl:          config.Upstream.SsoBaseUrl,
		Timeout:          timeout,
		BrowserTransport: config.Upstream.BrowserTransport,
	}, tel)
	portal := zdbk.NewClient(zdbk.Options{
		SsoBaseUrl:       config.Upstream.SsoBaseUrl,
		PortalBaseUrl:    config.Upstream.PortalBaseUrl,
		Timeout:          timeout,
		BrowserTransport: config.Upstream.BrowserTransport,
	}, tel)

	ingestor := ingest.NewIngestor(ingest.Options{
		Authenticator: sso,
		Exchanger:     portal,
		Fetcher:       portal,
		Cache:         cache,
		Calendar:      calendar,
		TokenTTL:      time.Duration(config.Session.TtlSeconds) * time.Second,
	}, tel)

	creds := credentialsFromEnv(config.Credentials)
	databasePath := config.Database

	ctx := globals.Set(osutil.SignalContext(cmd.Context()), &globals.Value{
		Tel:      tel,
		Clock:    clock,
		Calendar: calendar,
		Ingestor: ingestor,
		Credentials: ingest.Credentials{
			Username: creds.Username,
			Password: creds.Password,
		},
		OpenStore: func() (*db.Store, func() error, error) {
			sqldb, err := migrations.OpenAndMigrateDB(db.Schema, databasePath)
			if err != nil {
				return nil, nil, err
			}
			return db.NewStore(sqldb, clock), sqldb.Close, nil
		},
	})
	cmd.SetContext(ctx)
	return nil
}

func shutdown(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return otel.Shutdown(ctx)
}

// requireUsername fails commands that need to know whose timetable to use.
func requireUsername(value *globals.Value) error {
	if value.Credentials.Username == "" {
		return fmt.Errorf("no username, set credentials.username in the config or ZJU_USERNAME")
	}
	return nil
}

// userError logs the details of err and returns the message meant for the user.
func userError(err error) error {
	slog.Error("pipeline failed", "err", err)
	return errors.New(ingest.UserMessage(err))
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
