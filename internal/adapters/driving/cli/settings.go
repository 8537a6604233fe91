package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change providers, chunking, retrieval and ingestion settings.

Settings are stored in ~/.studymate/config.toml. API keys in the environment
(GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY) or a .env file take
precedence over the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one setting",
	Long: `Sets a config key such as chunking.size or llm.provider. An empty value
resets the key to its default. For API keys the value may be omitted and is
then read without echo.

Invalid values are rejected and the previous value is kept.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the AI providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(styles.Title.Render("Current Settings"))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	printStatus(cmd, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Max output tokens: %d\n", settings.LLM.MaxOutputTokens)
	cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
	printStatus(cmd, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  K: %d\n", settings.Retrieval.K)
	cmd.Printf("  Max context chars: %d\n", settings.Retrieval.MaxContextChars)
	cmd.Printf("  Dedupe threshold: %.2f\n", settings.Retrieval.DedupeThreshold)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Workers: %d\n", settings.Ingest.Workers)
	cmd.Printf("  Max attempts: %d\n", settings.Ingest.MaxAttempts)
	cmd.Printf("  Requests per second: %.1f\n", settings.Ingest.RequestsPerSecond)
	cmd.Printf("  Max document size: %d MiB\n", settings.Ingest.MaxDocumentBytes>>20)
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Collection: %s\n", settings.Store.Collection)
	if settings.Store.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Store.DataDir)
	}
	cmd.Println()

	if err := svc.Validate(); err != nil {
		cmd.Println(styles.Warning.Render(fmt.Sprintf("Warning: %v", err)))
		cmd.Println("Run 'studymate settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println(styles.Success.Render("Configuration is valid."))
	}
	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

func printStatus(cmd *cobra.Command, configured bool) {
	if configured {
		cmd.Printf("  Status: %s\n", styles.Success.Render("configured"))
		return
	}
	cmd.Printf("  Status: %s\n", styles.Warning.Render("not configured"))
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case svc.IsSecret(key):
		cmd.Printf("Enter value for %s: ", key)
		value = readPassword()
		cmd.Println()
		if value == "" {
			return errors.New("no value entered")
		}
	default:
		return fmt.Errorf("missing value for %s (use \"\" to reset)", key)
	}

	if err := svc.Set(key, value); err != nil {
		return err
	}

	shown := value
	if svc.IsSecret(key) && value != "" {
		shown = maskAPIKey(value)
	}
	if value == "" {
		cmd.Printf("%s %s reset to default\n", styles.Success.Render("✓"), key)
	} else {
		cmd.Printf("%s %s = %s\n", styles.Success.Render("✓"), key, shown)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	embedErr, llmErr := svc.CheckProviders(cmd.Context())
	report := func(name string, err error) {
		if err != nil {
			cmd.Printf("%-10s %s %v\n", name, styles.Error.Render("FAILED"), err)
			return
		}
		cmd.Printf("%-10s %s\n", name, styles.Success.Render("OK"))
	}
	report("Embedding", embedErr)
	report("LLM", llmErr)

	if embedErr != nil {
		return fmt.Errorf("embedding provider unavailable: %w", embedErr)
	}
	if llmErr != nil {
		cmd.Println(styles.Warning.Render("Documents can be ingested, but questions need a reachable language model."))
	}
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
