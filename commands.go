package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/williamokano/objstore/pkg/logger"
	"github.com/williamokano/objstore/pkg/storage"
)

func uploadCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload local files, each under its base name",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("upload needs at least one file", 2)
			}
			client, err := s.openClient()
			if err != nil {
				return err
			}

			uploader := storage.NewBatchUploader(client, s.cfg.GetMaxConcurrentTransfers(), *logger.Get())
			results := uploader.Upload(c.Context, c.Args().Slice())

			var errs []error
			for _, result := range results {
				fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", result.Path, result.Key, result.Outcome)
				if result.Error != nil {
					errs = append(errs, result.Error)
				}
			}
			return errors.Join(errs...)
		},
	}
}

func downloadCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download an object to a local path",
		ArgsUsage: "KEY [DEST]",
		Action: func(c *cli.Context) error {
			key := c.Args().Get(0)
			if key == "" {
				return cli.Exit("download needs a key", 2)
			}
			dest := c.Args().Get(1)
			if dest == "" {
				dest = filepath.Base(key)
			}

			client, err := s.openClient()
			if err != nil {
				return err
			}

			if _, err := client.Download(c.Context, key, dest); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, dest)
			return nil
		},
	}
}

func removeCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Remove an object; removing an absent key succeeds",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			key := c.Args().First()
			if key == "" {
				return cli.Exit("remove needs a key", 2)
			}

			client, err := s.openClient()
			if err != nil {
				return err
			}

			outcome, err := client.Remove(c.Context, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s\t%s\n", key, outcome)
			return nil
		},
	}
}

func listCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List every key in the container",
		Action: func(c *cli.Context) error {
			client, err := s.openClient()
			if err != nil {
				return err
			}

			keys, err := client.List(c.Context)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(c.App.Writer, key)
			}
			return nil
		},
	}
}

func existsCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Print whether an object exists; exits 1 when it does not",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			key := c.Args().First()
			if key == "" {
				return cli.Exit("exists needs a key", 2)
			}

			client, err := s.openClient()
			if err != nil {
				return err
			}

			exists, err := client.Exists(c.Context, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, exists)
			if !exists {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// demoCommand uploads a file, fetches it back, removes it and then shows
// the listing and the existence check
func demoCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Run upload, download, remove, list and exists against one file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Local file to upload",
				Value: "data.txt",
			},
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Where to write the downloaded copy",
				Value: "get_data.txt",
			},
		},
		Action: func(c *cli.Context) error {
			client, err := s.openClient()
			if err != nil {
				return err
			}

			file := c.String("file")
			key := filepath.Base(file)

			if _, err := client.Upload(c.Context, file); err != nil {
				return err
			}
			if _, err := client.Download(c.Context, key, c.String("dest")); err != nil {
				return err
			}
			if _, err := client.Remove(c.Context, key); err != nil {
				return err
			}

			keys, err := client.List(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, keys)

			exists, err := client.Exists(c.Context, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, exists)
			return nil
		},
	}
}
