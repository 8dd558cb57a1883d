package main

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/williamokano/objstore/pkg/config"
	"github.com/williamokano/objstore/pkg/logger"
	"github.com/williamokano/objstore/pkg/storage"

	_ "github.com/williamokano/objstore/pkg/storage/backblaze"
	_ "github.com/williamokano/objstore/pkg/storage/local"
	_ "github.com/williamokano/objstore/pkg/storage/minio"
	_ "github.com/williamokano/objstore/pkg/storage/s3"
	_ "github.com/williamokano/objstore/pkg/storage/ssh"
)

// session holds what the Before hook sets up for the commands
type session struct {
	cfg       *config.Config
	client    *storage.Client
	logCloser io.Closer
}

func main() {
	os.Exit(run(newApp(&session{}), os.Args))
}

// run reports a failed command through the logger only and returns the exit code
func run(app *cli.App, args []string) int {
	if err := app.Run(args); err != nil {
		log.Error().Err(err).Msg("command failed")
		return 1
	}
	return 0
}

func newApp(s *session) *cli.App {
	return &cli.App{
		Name:  "objstore",
		Usage: "Upload, download, list and remove objects in a remote container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (.json or .toml); environment variables override it",
				EnvVars: []string{"OBJSTORE_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files to load before reading the environment",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json or console",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also append JSON logs to this file",
			},
		},
		Before: s.setup,
		After:  s.teardown,
		Commands: []*cli.Command{
			uploadCommand(s),
			downloadCommand(s),
			removeCommand(s),
			listCommand(s),
			existsCommand(s),
			demoCommand(s),
		},
	}
}

func (s *session) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), c.StringSlice("env-file")...)
	if err != nil {
		return err
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}

	closer, err := logger.Init(cfg.GetLogLevel(), cfg.GetLogFormat(), cfg.LogFile)
	if err != nil {
		return err
	}
	s.logCloser = closer
	s.cfg = cfg

	return nil
}

// openClient builds the client on first use so help works without credentials
func (s *session) openClient() (*storage.Client, error) {
	if s.client != nil {
		return s.client, nil
	}

	client, err := storage.New(s.cfg.Storage, *logger.Get())
	if err != nil {
		return nil, err
	}
	s.client = client

	logger.Get().Debug().
		Str("backend", client.Type()).
		Str("container", client.Container()).
		Msg("client ready")
	return client, nil
}

func (s *session) teardown(c *cli.Context) error {
	if s.logCloser != nil {
		return s.logCloser.Close()
	}
	return nil
}
