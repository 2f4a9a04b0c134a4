package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, sampling, indexing and storage options.

Settings are stored in ~/.askdocs/config.toml. Environment variables
(ASKDOCS_*, OPENAI_API_KEY, ANTHROPIC_API_KEY, AWS_REGION) override them.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Choose the embedding provider",
	Long: `Choose the provider that embeds document chunks and questions.

Without --provider the choices are prompted for. Changing the embedding
model invalidates indexed vectors, so re-index afterwards.`,
	Example: `  askdocs settings embedding
  askdocs settings embedding --provider ollama --model nomic-embed-text`,
	RunE: func(cmd *cobra.Command, _ []string) error { return runProviderSetup(cmd, embeddingSetup) },
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Choose the language model",
	Long: `Choose the provider and model that answer questions.

Without --provider the choices are prompted for.`,
	Example: `  askdocs settings llm
  askdocs settings llm --provider bedrock --region eu-central-1`,
	RunE: func(cmd *cobra.Command, _ []string) error { return runProviderSetup(cmd, llmSetup) },
}

var settingsSamplingCmd = &cobra.Command{
	Use:   "sampling",
	Short: "Set generation sampling parameters",
	Long: `Set the sampling parameters passed to the language model.

Only the flags given are changed.
  --temperature  in [0, 1]
  --top-p        in (0, 1]
  --top-k        0 or more (ignored by providers without top-k)
  --max-tokens   greater than 0`,
	RunE: runSettingsSampling,
}

var settingsSessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Set index policy and call timeout",
	Long: `Set how uploads affect the index and how long external calls may take.

Only the flags given are changed.
  --policy         replace (default) or append
  --clear-memory   reset the conversation when the index is replaced
  --timeout        per-call timeout, e.g. 30s or 2m`,
	RunE: runSettingsSession,
}

func init() {
	for _, c := range []*cobra.Command{settingsEmbeddingCmd, settingsLLMCmd} {
		c.Flags().String("provider", "", "provider name; skips the prompts")
		c.Flags().String("model", "", "model name (default: the provider's default)")
		c.Flags().String("api-key", "", "API key for hosted providers")
		c.Flags().String("region", "", "AWS region for Bedrock")
	}

	settingsSamplingCmd.Flags().Float64("temperature", 0, "sampling temperature")
	settingsSamplingCmd.Flags().Float64("top-p", 0, "nucleus sampling mass")
	settingsSamplingCmd.Flags().Int("top-k", 0, "sample from the K most likely tokens")
	settingsSamplingCmd.Flags().Int("max-tokens", 0, "maximum reply length in tokens")

	settingsSessionCmd.Flags().String("policy", "", "index policy (replace or append)")
	settingsSessionCmd.Flags().Bool("clear-memory", true, "clear the conversation when the index is replaced")
	settingsSessionCmd.Flags().Duration("timeout", 0, "timeout for each embedding, index and generation call")

	settingsCmd.AddCommand(settingsShowCmd, settingsEmbeddingCmd, settingsLLMCmd,
		settingsSamplingCmd, settingsSessionCmd)
	rootCmd.AddCommand(settingsCmd)
}

// currentSettings loads the settings or explains why it cannot.
func currentSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// field is one "Label: value" row of settings output. Rows with an empty
// value are omitted.
type field struct {
	label string
	value string
}

func printSection(cmd *cobra.Command, title string, fields []field) {
	cmd.Printf("[%s]\n", title)
	for _, f := range fields {
		if f.value != "" {
			cmd.Printf("  %s: %s\n", f.label, f.value)
		}
	}
	cmd.Println()
}

func providerFields(p domain.AIProvider, model, baseURL, apiKey, region string, configured bool) []field {
	fields := []field{
		{"Provider", p.Description()},
		{"Model", model},
	}
	if p.IsLocal() {
		fields = append(fields, field{"Base URL", baseURL})
	}
	if p.RequiresAPIKey() {
		key := "(not set)"
		if apiKey != "" {
			key = maskAPIKey(apiKey)
		}
		fields = append(fields, field{"API Key", key})
	}
	if p.RequiresRegion() {
		fields = append(fields, field{"Region", region})
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	return append(fields, field{"Status", status})
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s, err := currentSettings()
	if err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	e, l := s.Embedding, s.LLM
	printSection(cmd, "Embedding", providerFields(e.Provider, e.Model, e.BaseURL, e.APIKey, e.Region, e.IsConfigured()))
	printSection(cmd, "LLM", providerFields(l.Provider, l.Model, l.BaseURL, l.APIKey, l.Region, l.IsConfigured()))
	printSection(cmd, "Sampling", []field{
		{"Temperature", fmt.Sprintf("%.2f", s.Sampling.Temperature)},
		{"Top P", fmt.Sprintf("%.2f", s.Sampling.TopP)},
		{"Top K", strconv.Itoa(s.Sampling.TopK)},
		{"Max Tokens", strconv.Itoa(s.Sampling.MaxTokens)},
	})
	printSection(cmd, "Indexing", []field{
		{"Chunk Size", strconv.Itoa(s.Chunker.Size)},
		{"Chunk Overlap", strconv.Itoa(s.Chunker.Overlap)},
		{"Retrieved Chunks", strconv.Itoa(s.Retrieval.TopK)},
		{"Index Policy", string(s.Session.IndexPolicy)},
		{"Clear Memory On Replace", yesNo(s.Session.ClearMemoryOnReplace)},
		{"Call Timeout", s.Session.CallTimeout.String()},
	})
	printSection(cmd, "Storage", []field{
		{"Vector Index", string(s.Storage.VectorBackend)},
		{"Conversation", string(s.Storage.MemoryBackend)},
		{"Data Directory", s.Storage.DataDir},
	})

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'askdocs settings embedding' or 'askdocs settings llm' to fix provider issues.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

// providerSetup describes one of the two provider roles.
type providerSetup struct {
	role      string
	noun      string
	providers func() []domain.AIProvider
	defaults  func() map[domain.AIProvider]string
	set       func(p domain.AIProvider, model, apiKey string) error
	setRegion func(s *domain.AppSettings, region string)
	validate  func() error
	after     string
}

var embeddingSetup = providerSetup{
	role:      "Embedding",
	noun:      "embedding",
	providers: domain.AllEmbeddingProviders,
	defaults:  domain.DefaultEmbeddingModels,
	set: func(p domain.AIProvider, model, apiKey string) error {
		return settingsService.SetEmbeddingProvider(p, model, apiKey)
	},
	setRegion: func(s *domain.AppSettings, region string) { s.Embedding.Region = region },
	validate:  func() error { return settingsService.ValidateEmbeddingConfig() },
	after:     "Re-index your documents so they use the new embeddings.",
}

var llmSetup = providerSetup{
	role:      "LLM",
	noun:      "LLM",
	providers: domain.AllLLMProviders,
	defaults:  domain.DefaultLLMModels,
	set: func(p domain.AIProvider, model, apiKey string) error {
		return settingsService.SetLLMProvider(p, model, apiKey)
	},
	setRegion: func(s *domain.AppSettings, region string) { s.LLM.Region = region },
	validate:  func() error { return settingsService.ValidateLLMConfig() },
}

// providerChoice is what the user picked, from flags or prompts.
type providerChoice struct {
	provider domain.AIProvider
	model    string
	apiKey   string
	region   string
}

func runProviderSetup(cmd *cobra.Command, setup providerSetup) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var (
		choice *providerChoice
		err    error
	)
	if cmd.Flags().Changed("provider") {
		choice, err = choiceFromFlags(cmd, setup)
	} else {
		choice, err = promptProvider(cmd, bufio.NewReader(cmd.InOrStdin()), setup)
	}
	if err != nil {
		return err
	}

	if err := setup.set(choice.provider, choice.model, choice.apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", setup.noun, err)
	}
	if choice.region != "" {
		s, err := currentSettings()
		if err != nil {
			return err
		}
		setup.setRegion(s, choice.region)
		if err := settingsService.Save(s); err != nil {
			return fmt.Errorf("failed to save region: %w", err)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := setup.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", setup.noun, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", setup.role, choice.provider.Description(), choice.model)
	if setup.after != "" {
		cmd.Println(setup.after)
	}
	return nil
}

func choiceFromFlags(cmd *cobra.Command, setup providerSetup) (*providerChoice, error) {
	flags := cmd.Flags()
	name, _ := flags.GetString("provider") //nolint:errcheck // Flag is registered
	p := domain.AIProvider(strings.ToLower(name))
	if !slices.Contains(setup.providers(), p) {
		return nil, fmt.Errorf("unknown %s provider %q", setup.noun, name)
	}

	c := &providerChoice{provider: p}
	c.model, _ = flags.GetString("model")   //nolint:errcheck // Flag is registered
	c.apiKey, _ = flags.GetString("api-key") //nolint:errcheck // Flag is registered
	c.region, _ = flags.GetString("region")  //nolint:errcheck // Flag is registered
	return c, c.complete(setup.defaults())
}

func promptProvider(cmd *cobra.Command, reader *bufio.Reader, setup providerSetup) (*providerChoice, error) {
	providers := setup.providers()
	cmd.Printf("Select %s Provider\n", setup.role)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	c := &providerChoice{provider: providers[parseChoice(readLine(reader), len(providers), 1)-1]}

	cmd.Printf("Enter model name [%s]: ", setup.defaults()[c.provider])
	c.model = readLine(reader)

	if c.provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		c.apiKey = readPassword(reader)
		cmd.Println()
	}
	if c.provider.RequiresRegion() {
		cmd.Printf("Enter region [%s]: ", domain.DefaultBedrockRegion)
		c.region = readLine(reader)
	}
	return c, c.complete(setup.defaults())
}

// complete fills defaults and rejects a hosted provider without a key.
func (c *providerChoice) complete(defaults map[domain.AIProvider]string) error {
	if c.model == "" {
		c.model = defaults[c.provider]
	}
	if c.provider.RequiresRegion() && c.region == "" {
		c.region = domain.DefaultBedrockRegion
	}
	if c.provider.RequiresAPIKey() && c.apiKey == "" {
		return errors.New("API key is required for this provider")
	}
	return nil
}

func runSettingsSampling(cmd *cobra.Command, _ []string) error {
	s, err := currentSettings()
	if err != nil {
		return err
	}

	sampling := s.Sampling
	flags := cmd.Flags()
	if flags.Changed("temperature") {
		sampling.Temperature, _ = flags.GetFloat64("temperature") //nolint:errcheck // Flag is registered
	}
	if flags.Changed("top-p") {
		sampling.TopP, _ = flags.GetFloat64("top-p") //nolint:errcheck // Flag is registered
	}
	if flags.Changed("top-k") {
		sampling.TopK, _ = flags.GetInt("top-k") //nolint:errcheck // Flag is registered
	}
	if flags.Changed("max-tokens") {
		sampling.MaxTokens, _ = flags.GetInt("max-tokens") //nolint:errcheck // Flag is registered
	}

	if err := settingsService.SetSampling(sampling); err != nil {
		return fmt.Errorf("failed to set sampling: %w", err)
	}

	cmd.Printf("Sampling: temperature=%.2f top_p=%.2f top_k=%d max_tokens=%d\n",
		sampling.Temperature, sampling.TopP, sampling.TopK, sampling.MaxTokens)
	return nil
}

func runSettingsSession(cmd *cobra.Command, _ []string) error {
	s, err := currentSettings()
	if err != nil {
		return err
	}

	session := s.Session
	flags := cmd.Flags()
	if flags.Changed("policy") {
		policy, _ := flags.GetString("policy") //nolint:errcheck // Flag is registered
		session.IndexPolicy = domain.IndexPolicy(strings.ToLower(policy))
	}
	if flags.Changed("clear-memory") {
		session.ClearMemoryOnReplace, _ = flags.GetBool("clear-memory") //nolint:errcheck // Flag is registered
	}
	if flags.Changed("timeout") {
		session.CallTimeout, _ = flags.GetDuration("timeout") //nolint:errcheck // Flag is registered
	}

	if err := settingsService.SetSession(session); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	cmd.Printf("Session: policy=%s clear_memory=%s timeout=%s\n",
		session.IndexPolicy, yesNo(session.ClearMemoryOnReplace), session.CallTimeout)
	return nil
}

//nolint:errcheck // EOF reads as an empty answer
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// parseChoice returns the 1-based menu choice in input, or defaultVal when
// input is empty or out of range.
func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal and falls back to reader otherwise.
func readPassword(reader *bufio.Reader) string {
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if password, err := term.ReadPassword(fd); err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
