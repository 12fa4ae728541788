package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/karolswdev/promptforge/internal/library"
)

// version is set during build time (e.g., via ldflags)
// Default is "dev" for local development.
var version = "dev"

// Log is the globally configured zerolog logger instance used throughout the cmd package.
// It's initialized in the root command's PersistentPreRunE based on the --log-level flag.
var Log zerolog.Logger

// configureLogger sets up the global zerolog logger for levelStr.
func configureLogger(levelStr string) error {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		log.Warn().Msgf("Invalid log level '%s', defaulting to 'info'", levelStr)
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	Log = log.Logger.With().Timestamp().Logger()
	Log.Debug().Msgf("Log level set to '%s'", level.String())
	return nil
}

// Execute is the main entry point for the Cobra CLI application.
// It is called directly from main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if Log.GetLevel() == zerolog.Disabled {
			_ = configureLogger("info")
		}
		Log.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree using the real configuration, keychain
// and LLM provider. The provider is created on first use.
func NewRootCmd() *cobra.Command {
	return newRootCmd(GetProvider)
}

// NewRootCmdWithProvider builds the command tree around p, for tests and
// embedding.
func NewRootCmdWithProvider(p *Provider) *cobra.Command {
	return newRootCmd(func() (*Provider, error) { return p, nil })
}

func newRootCmd(getProvider func() (*Provider, error)) *cobra.Command {
	a := &app{getProvider: getProvider}

	root := &cobra.Command{
		Use:   "pforge",
		Short: "PromptForge CLI - build structured video generation prompts",
		Long: `PromptForge (pforge) edits a schema-driven video generation prompt,
keeps a library of reusable characters, scenes and styles, generates
randomized scene packs and serves the billing webhook endpoints.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, _ := cmd.Flags().GetString("log-level")
			return configureLogger(lvl)
		},
	}

	root.PersistentFlags().String("log-level", "info", "Set log level (debug, info, warn, error, fatal, panic)")
	root.PersistentFlags().StringP("output", "o", "text", "Output format (text|json|yaml)")

	root.AddCommand(
		a.newConfigCmd(),
		a.newFieldCmd(),
		a.newPromptCmd(),
	)
	for _, kind := range library.Kinds {
		root.AddCommand(a.newFragmentCmd(kind))
	}
	root.AddCommand(
		a.newBackupCmd(),
		a.newPackCmd(),
		a.newProjectCmd(),
		a.newAssistCmd(),
		a.newServeCmd(),
		newCompletionCmd(root),
	)
	return root
}

// newCompletionCmd generates shell completion for root.
func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `To load completions:

Bash:
  $ source <(pforge completion bash)

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ pforge completion zsh > "${fpath[1]}/_pforge"

Fish:
  $ pforge completion fish | source

PowerShell:
  PS> pforge completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell type %q", args[0])
			}
		},
	}
}
