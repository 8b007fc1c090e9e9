package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formstate/internal/config"
	"github.com/goliatone/go-formstate/pkg/dynamic"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/presets"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
	"github.com/goliatone/go-formstate/pkg/submit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	err := run(ctx, os.Args[1:], os.Stdout, logger)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	case errors.Is(err, tui.ErrAborted), errors.Is(err, context.Canceled):
		logger.Warn("aborted")
		os.Exit(130)
	default:
		logger.WithError(err).Error("formstate failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *logrus.Logger) error {
	cfg, list, err := resolveConfig(args, nil)
	if err != nil {
		return err
	}
	if list {
		_, err := fmt.Fprintln(stdout, strings.Join(presets.Names(), "\n"))
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	def, err := presets.Lookup(cfg.Form)
	if err != nil {
		return err
	}
	def.ShortKeys = cfg.ShortKeys

	out, closeOut, err := openOutput(cfg.Output, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	format, err := submit.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	sink, err := submit.NewWriterSink(out,
		submit.WithFormat(format),
		submit.WithTitle(def.Title),
		submit.WithTemplate(cfg.SummaryTemplate),
		submit.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	opts := []form.Option{
		form.WithLogger(logger),
		form.WithSink(sink),
		form.WithContext(ctx),
	}
	if cfg.Strict {
		opts = append(opts, form.WithStrict())
	}
	if cfg.Sanitize {
		opts = append(opts, form.WithSanitizer(form.HTMLSanitizer()))
	}
	if def.Discriminant != "" {
		resolver, err := buildResolver(cfg, logger)
		if err != nil {
			return err
		}
		if resolver == nil {
			logger.WithField("form", def.Name).Info("no questions URL configured; additional questions disabled")
		} else {
			opts = append(opts, def.DynamicFields(resolver))
		}
	}

	controller := def.NewController(opts...)
	defer controller.Close()

	session, err := tui.NewSession(controller, def.Fields,
		tui.WithTitle(def.Title),
		tui.WithLogger(logger),
		tui.WithMaxAttempts(cfg.MaxAttempts),
	)
	if err != nil {
		return err
	}
	_, err = session.Run(ctx)
	return err
}

// resolveConfig layers flags over the config file and environment. Only
// flags given explicitly override loaded values.
func resolveConfig(args []string, environ map[string]string) (config.Config, bool, error) {
	fs := flag.NewFlagSet("formstate-cli", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	formName := fs.String("form", "", "form to run ("+strings.Join(presets.Names(), ", ")+")")
	format := fs.String("format", "", "output format (json, form, pretty, summary)")
	output := fs.String("output", "", "output file (- for stdout)")
	questionsURL := fs.String("questions-url", "", "URL listing additional question descriptors")
	strict := fs.Bool("strict", false, "reject writes to undeclared fields")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	list := fs.Bool("list", false, "list built-in forms and exit")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, false, err
	}

	cfg, err := config.LoadWithEnv(*configPath, environ)
	if err != nil {
		return config.Config{}, false, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "form":
			cfg.Form = *formName
		case "format":
			cfg.Format = *format
		case "output":
			cfg.Output = *output
		case "questions-url":
			cfg.QuestionsURL = *questionsURL
		case "strict":
			cfg.Strict = *strict
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, false, err
	}
	return cfg, *list, nil
}

func buildResolver(cfg config.Config, logger logrus.FieldLogger) (*dynamic.Resolver, error) {
	if strings.TrimSpace(cfg.QuestionsURL) == "" {
		return nil, nil
	}
	opts := []dynamic.HTTPOption{dynamic.WithTimeout(cfg.Timeout)}
	if cfg.ResultsPath != "" {
		opts = append(opts, dynamic.WithResultsPath(cfg.ResultsPath))
	}
	source, err := dynamic.NewHTTPSource(cfg.QuestionsURL, opts...)
	if err != nil {
		return nil, err
	}
	return dynamic.NewResolver(source, dynamic.WithResolverLogger(logger)), nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
