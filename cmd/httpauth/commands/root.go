// Package commands implements the httpauth command tree.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding"

	"github.com/smnsjas/go-httpauth/auth"
	"github.com/smnsjas/go-httpauth/challenge"
	"github.com/smnsjas/go-httpauth/internal/charset"
	"github.com/smnsjas/go-httpauth/internal/config"
	"github.com/smnsjas/go-httpauth/internal/log"
)

// Version is injected at build time.
var Version = "dev"

// app carries what every subcommand needs once the root has loaded its
// configuration.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	header     bool
	proxy      bool

	cfg    *config.Config
	logger *slog.Logger
	audit  *slog.Logger
	file   *log.RotatingFile
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "httpauth",
		Short: "Build HTTP Basic and NTLM authorization headers",
		Long: `httpauth builds Authorization header values for the Basic and NTLM
schemes and shows which scheme a server's challenges select.

It never opens a connection. Paste the WWW-Authenticate or
Proxy-Authenticate values you received and copy the output back.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ./httpauth.yaml or the user config dir)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json (overrides config)")
	root.PersistentFlags().BoolVar(&a.header, "header", false, "Print the full header line, not just the value")
	root.PersistentFlags().BoolVar(&a.proxy, "proxy", false, "Use the proxy headers (Proxy-Authenticate, Proxy-Authorization)")

	root.AddCommand(newBasicCmd(a))
	root.AddCommand(newNTLMCmd(a))
	root.AddCommand(newSelectCmd(a))
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	a.cfg = cfg

	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger, err = log.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	a.audit = a.logger
	if cfg.Logging.File != "" {
		a.file, err = log.NewRotatingFile(cfg.Logging.File, cfg.Logging.MaxSize, cfg.Logging.MaxBackups)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		// The file keeps every event, whatever the console level.
		a.audit, err = log.New(a.file, slog.LevelInfo, log.FormatJSON)
		if err != nil {
			return errors.Join(err, a.close())
		}
	}
	a.logger.Debug("configuration loaded",
		"charset", cfg.Charset,
		"priority", cfg.Priority,
		"audit_file", cfg.Logging.File)
	return nil
}

func (a *app) close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// processor returns a Processor whose schemes use enc, when non-nil, and
// the command logger.
func (a *app) processor(enc encoding.Encoding) *auth.Processor {
	registry := auth.DefaultRegistry()
	registry.SetPriority(a.cfg.Priority...)

	schemeOpts := []auth.SchemeOption{auth.WithLogger(a.logger)}
	if enc != nil {
		schemeOpts = append(schemeOpts, auth.WithCharset(enc))
	}
	return auth.NewProcessor(registry,
		auth.WithProcessorLogger(a.audit),
		auth.WithSchemeOptions(schemeOpts...))
}

// lookupCharset resolves name, or fallback when name is empty. An empty
// result means the scheme default.
func lookupCharset(name, fallback string) (encoding.Encoding, error) {
	if name == "" {
		name = fallback
	}
	if name == "" {
		return nil, nil
	}
	return charset.Lookup(name)
}

// printValue writes an authorization header value, prefixed with its
// header name under --header or --proxy.
func (a *app) printValue(cmd *cobra.Command, value string) error {
	if a.header || a.proxy {
		value = challenge.ResponseHeader(a.proxy) + ": " + value
	}
	return printLine(cmd.OutOrStdout(), value)
}

func printLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
