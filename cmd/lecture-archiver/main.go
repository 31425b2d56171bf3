package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	lecture_archiver "github.com/alanbriolat/lecture-archiver"
	"github.com/alanbriolat/lecture-archiver/async"
	"github.com/alanbriolat/lecture-archiver/generic"
	"github.com/alanbriolat/lecture-archiver/internal/browser"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:      "lecture-archiver",
		Usage:     "download lecture recordings from an Echo360 course section",
		ArgsUsage: "[course link ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "download every recording instead of asking which ones",
			},
			&cli.StringFlag{
				Name:    "destination",
				Aliases: []string{"d"},
				Value:   "Lecture Recordings",
				Usage:   "save recordings under `DIR`, one subdirectory per course",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "read course links from `FILE` (one per line, # comments allowed)",
			},
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "track downloaded recordings in `FILE` and skip anything already listed",
			},
			&cli.StringFlag{
				Name:  "cookie-file",
				Value: "echo360.cookies",
				Usage: "persist the authenticated session to `FILE`",
			},
			&cli.BoolFlag{
				Name:  "hide-progress-bar",
				Usage: "don't render a progress bar while downloading",
			},
			&cli.BoolFlag{
				Name:    "print-source",
				Aliases: []string{"p"},
				Usage:   "print each recording's source link instead of downloading",
			},
			&cli.StringFlag{
				Name:  "print-source-file",
				Usage: "append each recording's source link to `FILE` instead of downloading",
			},
			&cli.BoolFlag{
				Name:  "show-browser",
				Usage: "show the browser window during the login flow",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print additional debugging information",
			},
		},
		Action:          run,
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.RunContext(ctx, os.Args) })

	select {
	case err := <-result:
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		stop()
		if err := <-result; err != nil {
			log.Fatal(err)
		}
	}
}

func run(c *cli.Context) error {
	logger, err := newLogger(c.Bool("verbose"))
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)
	log := logger.Sugar()

	links := c.Args().Slice()
	if file := c.String("file"); file != "" {
		fromFile, err := readLinksFile(file)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		links = append(links, fromFile...)
	}
	if len(links) == 0 {
		return cli.Exit("No course links specified. See --help for more information.", 1)
	}

	// One HTTP session (cookie jar included) shared by every request.
	jar := generic.Unwrap(cookiejar.New(nil))
	client := &http.Client{Jar: jar}

	prompter := lecture_archiver.TerminalPrompter{}
	vault := &lecture_archiver.Vault{
		Path:     c.String("cookie-file"),
		Prompter: prompter,
		Log:      log,
	}
	auth := &browser.Authenticator{
		Client:   client,
		Vault:    vault,
		Prompter: prompter,
		Log:      log,
		Headless: !c.Bool("show-browser"),
	}
	resolver := &lecture_archiver.Resolver{Client: client, Auth: auth, Log: log}
	downloader := &lecture_archiver.Downloader{
		Client:       client,
		Log:          log,
		HideProgress: c.Bool("hide-progress-bar"),
	}
	history := &lecture_archiver.History{Path: c.String("history-file"), Log: log}

	var errs error
	var collection []lecture_archiver.DownloadTarget
	for _, link := range links {
		log.Infof("Currently selected: %s", link)
		targets, err := resolver.ResolveCourse(c.Context, link)
		if err != nil {
			log.Errorf("Skipping %s: %v", link, err)
			errs = multierror.Append(errs, err)
			continue
		}
		log.Infof("Found %d videos.", len(targets))
		if len(targets) == 0 {
			continue
		}

		lecture_archiver.PrintTargets(os.Stdout, targets, nil)
		var selection []int
		if c.Bool("all") {
			selection = lecture_archiver.SelectAll(len(targets))
		} else {
			if selection, err = lecture_archiver.AskSelection(prompter, log, len(targets)); err != nil {
				return err
			}
		}

		log.Info("Selected videos:")
		lecture_archiver.PrintTargets(os.Stdout, targets, selection)
		for _, i := range selection {
			collection = append(collection, targets[i])
		}
	}

	for _, target := range collection {
		if done, err := printSource(c, target); done {
			if err != nil {
				errs = multierror.Append(errs, err)
			}
			continue
		}

		if history.Enabled() {
			seen, err := history.Contains(target.SourceURL)
			if err != nil {
				log.Warnf("Could not read history: %v", err)
			} else if seen {
				log.Infof("Skipping %s: already in history", target.EpisodeLabel)
				continue
			}
		}

		if err := downloader.Download(c.Context, c.String("destination"), target); err != nil {
			log.Errorf("Failed to download %s: %v", target.EpisodeLabel, err)
			errs = multierror.Append(errs, err)
			continue
		}
		if history.Enabled() {
			if err := history.Append(target.SourceURL); err != nil {
				log.Warnf("Could not update history: %v", err)
			}
		}
	}

	return errs
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return config.Build()
}

func readLinksFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read links file: %w", err)
	}
	var links []string
	for _, line := range strings.Fields(string(data)) {
		if strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	return links, nil
}

// printSource handles --print-source / --print-source-file, reporting whether
// the target was consumed (i.e. should not be downloaded).
func printSource(c *cli.Context, target lecture_archiver.DownloadTarget) (bool, error) {
	if file := c.String("print-source-file"); file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return true, err
		}
		defer f.Close()
		_, err = fmt.Fprintln(f, target.SourceURL)
		return true, err
	}
	if c.Bool("print-source") {
		fmt.Println(target.SourceURL)
		return true, nil
	}
	return false, nil
}
