package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/heatchat/internal/app"
	"github.com/vovakirdan/heatchat/internal/config"
	applog "github.com/vovakirdan/heatchat/internal/log"
	"github.com/vovakirdan/heatchat/internal/ui/feedview"
)

type rootOptions struct {
	configPath string
	logLevel   string
	store      string

	cfg    config.Config
	logger *zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "heatchat",
		Short:         "Terminal client for the heat chat feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	root.PersistentFlags().StringVar(&opts.store, "store", "", "session store backend (sqlite, keyring, memory)")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoAmICmd(opts),
		newFeedCmd(opts),
		newDevServerCmd(opts),
	)
	return root
}

func (o *rootOptions) load() error {
	bootstrap := applog.New("warn")
	cfg, path, err := config.Load(bootstrap, o.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{LogLevel: o.logLevel, StoreBackend: o.store})
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = applog.New(cfg.LogLevel)
	o.logger.Debug().Str("config", path).Msg("configuration loaded")
	return nil
}

func (o *rootOptions) app(cmd *cobra.Command) (*app.App, error) {
	return app.New(o.cfg, o.logger, app.WithOutput(cmd.OutOrStdout()))
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var redirectURL string
	var printURL bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through the identity provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if printURL {
				fmt.Fprintln(cmd.OutOrStdout(), a.SignInURL())
				return nil
			}

			user, err := a.Login(cmd.Context(), redirectURL)
			if errors.Is(err, app.ErrNotSignedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Sign-in was not completed")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&redirectURL, "redirect-url", "", "complete sign-in from a redirect URL carrying ?code=")
	cmd.Flags().BoolVar(&printURL, "print-url", false, "print the sign-in link and exit")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoAmICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.WhoAmI(cmd.Context())
			if errors.Is(err, app.ErrNotSignedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.DisplayName(), user.Login)
			return nil
		},
	}
}

func newFeedCmd(opts *rootOptions) *cobra.Command {
	var tui bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Follow the message feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			f, queue := a.NewFeed()
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if !tui {
				printed := make(chan struct{})
				go func() {
					defer close(printed)
					feedview.Follow(ctx, cmd.OutOrStdout(), f.Updates())
				}()
				err := a.RunFeed(ctx, f, queue)
				cancel()
				<-printed
				return err
			}

			if err := a.Restore(ctx); err != nil {
				return err
			}
			viewer := ""
			if user := a.Session().User(); user != nil {
				viewer = user.DisplayName()
			}

			program := tea.NewProgram(feedview.New(f.Window(), f.Updates(), viewer), tea.WithContext(ctx))

			feedErr := make(chan error, 1)
			go func() {
				err := a.RunFeed(ctx, f, queue)
				feedErr <- err
				if err != nil {
					program.Quit()
				}
			}()

			_, runErr := program.Run()
			cancel()
			if err := <-feedErr; err != nil {
				return err
			}
			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return runErr
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "render the feed in a full-screen terminal view")
	return cmd
}

func newDevServerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devserver",
		Short: "Run the development backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := app.NewDevServer(opts.cfg, opts.logger)
			opts.logger.Info().Str("addr", srv.Addr()).Msg("starting heatchat dev backend")
			if err := srv.Run(cmd.Context()); err != nil {
				return err
			}
			opts.logger.Info().Msg("server stopped")
			return nil
		},
	}
}
