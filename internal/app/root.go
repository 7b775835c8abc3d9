package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/config"
	"github.com/blackwell-systems/stashctl/internal/logging"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

var (
	cfg    *config.Config
	logger *logrus.Logger

	flagNoColor       bool
	flagNoInteractive bool
	flagConfig        string
	flagSite          string
	flagVerbose       bool
)

// standalone commands run without loading the config.
var standalone = map[string]bool{"version": true, "completion": true, "help": true}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stashctl",
		Short: "Curate a static collection of GitHub repositories and articles",
		Long: `stashctl maintains the JSON catalog behind a static "stash" site:
GitHub repositories and web articles with their screenshots, tags and
statistics.

Items live under <site>/data, images under <site>/assets/images.
Run 'stashctl serve' for the HTTP admin API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/stashctl/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagSite, "site", "", "Site root, overrides site.root from the config")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug details to stderr")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		stashutil.InitColor(flagNoColor)
		if standalone[cmd.Name()] {
			return nil
		}

		var err error
		if flagConfig != "" {
			cfg, err = config.LoadFile(flagConfig)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagSite != "" {
			cfg.Site.Root = config.ExpandHome(flagSite)
		}

		logger, err = logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("configuring logging: %w", err)
		}
		switch {
		case flagVerbose:
			logger.SetLevel(logrus.DebugLevel)
		case cmd.Name() != "serve" && cfg.Log.Output != "file" && logger.GetLevel() > logrus.WarnLevel:
			// Commands report progress through ok/warn; the log only carries problems.
			logger.SetLevel(logrus.WarnLevel)
		}
		return nil
	}

	rootCmd.AddCommand(
		newInitCmd(),
		newAddCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newListCmd(),
		newShowCmd(),
		newRefreshCmd(),
		newVerifyCmd(),
		newMigrateCmd(),
		newTagsCmd(),
		newServeCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)
	return rootCmd
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// failLine prints a red failure line without exiting.
func failLine(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.RedString("✗"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}

func colorLabel(s string) string { return color.CyanString(s) }
