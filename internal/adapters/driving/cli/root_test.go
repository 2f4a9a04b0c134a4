package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// fakeSession implements driving.SessionService for command tests.
type fakeSession struct {
	mu sync.Mutex

	report    *domain.IndexReport
	processFn func(docs []domain.RawDocument, opts domain.IndexOptions) (*domain.IndexReport, error)
	answer    *domain.Answer
	askErr    error
	turns     []domain.Turn
	stats     domain.SessionStats
	err       error

	processed []domain.RawDocument
	opts      domain.IndexOptions
	questions []string
	resets    int
	clears    int
}

func (f *fakeSession) Process(
	_ context.Context, docs []domain.RawDocument, opts domain.IndexOptions,
) (*domain.IndexReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = docs
	f.opts = opts
	if f.processFn != nil {
		return f.processFn(docs, opts)
	}
	if f.report != nil {
		return f.report, f.err
	}
	policy := opts.Policy
	if policy == "" {
		policy = domain.IndexPolicyReplace
	}
	return &domain.IndexReport{Policy: policy, Documents: len(docs), Chunks: len(docs) * 2}, f.err
}

func (f *fakeSession) Ask(_ context.Context, question string) (*domain.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, question)
	if f.askErr != nil {
		return nil, f.askErr
	}
	return f.answer, nil
}

func (f *fakeSession) History(context.Context) ([]domain.Turn, error) {
	return f.turns, f.err
}

func (f *fakeSession) Reset(context.Context) error {
	f.resets++
	return f.err
}

func (f *fakeSession) ClearIndex(context.Context) error {
	f.clears++
	return f.err
}

func (f *fakeSession) State() domain.SessionState { return f.stats.State }

func (f *fakeSession) Stats(context.Context) (*domain.SessionStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	stats := f.stats
	return &stats, nil
}

func (f *fakeSession) UserMessage(err error) string {
	return domain.UserMessage(err, "")
}

// fakeSettings implements driving.SettingsService for command tests.
type fakeSettings struct {
	settings    domain.AppSettings
	validateErr error
	saved       int
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: domain.DefaultAppSettings()}
}

func (f *fakeSettings) Get() (*domain.AppSettings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeSettings) Save(s *domain.AppSettings) error {
	f.settings = *s
	f.saved++
	return nil
}

func (f *fakeSettings) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	f.settings.Embedding.Provider = p
	f.settings.Embedding.Model = model
	f.settings.Embedding.APIKey = apiKey
	return nil
}

func (f *fakeSettings) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	f.settings.LLM.Provider = p
	f.settings.LLM.Model = model
	f.settings.LLM.APIKey = apiKey
	return nil
}

func (f *fakeSettings) SetSampling(s domain.SamplingSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.settings.Sampling = s
	return nil
}

func (f *fakeSettings) SetSession(s domain.SessionSettings) error {
	if !s.IndexPolicy.IsValid() {
		return domain.ErrInvalidParameter
	}
	f.settings.Session = s
	return nil
}

func (f *fakeSettings) Validate() error { return f.validateErr }

func (f *fakeSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (f *fakeSettings) ValidateEmbeddingConfig() error { return nil }

func (f *fakeSettings) ValidateLLMConfig() error { return nil }

// setServices installs fakes for the duration of a test.
func setServices(t *testing.T, session *fakeSession, settings *fakeSettings) {
	t.Helper()
	s := Services{}
	if session != nil {
		s.Session = session
	}
	if settings != nil {
		s.Settings = settings
	}
	SetServices(s)
	t.Cleanup(func() { SetServices(Services{}) })
}

// executeCommand runs the root command with args and returns its output.
// Flags are reset first because commands are package-level.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			def := strings.Trim(f.DefValue, "[]")
			var vals []string
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals) //nolint:errcheck // Defaults always parse
		} else {
			_ = f.Value.Set(f.DefValue) //nolint:errcheck // Defaults always parse
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestRootCmd_Commands(t *testing.T) {
	want := []string{"index", "ask", "history", "reset", "clear-index", "status", "chat", "serve", "mcp", "settings", "version"}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, names[name], "missing command %q", name)
	}
}

func TestRootCmd_Help(t *testing.T) {
	out, err := executeCommand(t, "", "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "askdocs")
	assert.Contains(t, out, "Ask questions about your documents")
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}

func TestCommands_RequireServices(t *testing.T) {
	SetServices(Services{})

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ask", "hello"}, "session service not configured"},
		{[]string{"history"}, "session service not configured"},
		{[]string{"reset"}, "session service not configured"},
		{[]string{"clear-index"}, "session service not configured"},
		{[]string{"status"}, "session service not configured"},
		{[]string{"serve"}, "session service not configured"},
		{[]string{"mcp", "serve"}, "session service not configured"},
		{[]string{"chat"}, "session service not configured"},
		{[]string{"settings", "show"}, "settings service not configured"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := executeCommand(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type stubWatcher struct {
	started chan struct{}
}

func (w *stubWatcher) Watch(ctx context.Context) error {
	close(w.started)
	<-ctx.Done()
	return nil
}

func TestWatchPrompts(t *testing.T) {
	w := &stubWatcher{started: make(chan struct{})}
	SetServices(Services{Prompts: w})
	defer SetServices(Services{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchPrompts(ctx)

	<-w.started
}

func TestWatchPrompts_NoWatcher(t *testing.T) {
	SetServices(Services{})

	assert.NotPanics(t, func() { watchPrompts(context.Background()) })
}
