package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medkb-labs/icdassist/internal/adapters/driven/config/file"
	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driving"
)

// --- Fake driving services for command tests ---

type fakeIngestService struct {
	report *domain.IngestReport
	err    error
}

func (f *fakeIngestService) IngestDir(_ context.Context, _, _ string) (*domain.IngestReport, error) {
	return f.report, f.err
}

func (f *fakeIngestService) IngestFile(_ context.Context, _, _ string) (*domain.Record, error) {
	return nil, f.err
}

type fakeIndexService struct {
	status *driving.IndexStatus
	err    error
	resets int
	builds int
}

func (f *fakeIndexService) BuildIndex(_ context.Context) (*driving.IndexStatus, error) {
	f.builds++
	return f.status, f.err
}

func (f *fakeIndexService) IndexRecord(_ context.Context, _ string) error { return f.err }

func (f *fakeIndexService) Reset(_ context.Context) error {
	f.resets++
	return nil
}

func (f *fakeIndexService) Status(_ context.Context) (*driving.IndexStatus, error) {
	return f.status, f.err
}

type fakeAssistantService struct {
	answer domain.Answer
	err    error
}

func (f *fakeAssistantService) Ask(_ context.Context, query string, history []domain.ChatMessage) ([]domain.ChatMessage, domain.Answer, error) {
	if f.err != nil {
		return history, domain.Answer{}, f.err
	}
	updated := append(append([]domain.ChatMessage(nil), history...),
		domain.ChatMessage{Role: domain.RoleUser, Content: query},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: f.answer.Render()},
	)
	return updated, f.answer, nil
}

// setupTestServices swaps in fakes and returns a cleanup restoring the
// previous wiring.
func setupTestServices(t *testing.T) (*fakeIngestService, *fakeIndexService, *fakeAssistantService) {
	t.Helper()

	prevConfig := appConfig
	prevIngest := ingestService
	prevIndex := indexService
	prevAssistant := assistantService

	cfg := file.DefaultConfig(t.TempDir())
	appConfig = &cfg

	ingest := &fakeIngestService{report: &domain.IngestReport{RunID: "run-1", Processed: 2}}
	index := &fakeIndexService{status: &driving.IndexStatus{
		Records:        2,
		ChunksTotal:    10,
		ChunksIndexed:  10,
		EmbeddingModel: "nomic-embed-text",
	}}
	assistant := &fakeAssistantService{answer: domain.Answer{
		Text:      "Cholera is an acute infection.",
		Citations: []domain.Citation{{Code: "1A00", URL: "https://icd.who.int/browse/1A00"}},
	}}

	ingestService = ingest
	indexService = index
	assistantService = assistant

	t.Cleanup(func() {
		appConfig = prevConfig
		ingestService = prevIngest
		indexService = prevIndex
		assistantService = prevAssistant
		rootCmd.SetArgs(nil)

		// Flag vars are package state and leak across Execute calls
		askJSON = false
		indexReset = false
		ingestOutDir = ""
	})
	return ingest, index, assistant
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "icdassist", rootCmd.Use)
	assert.Contains(t, rootCmd.Long, "ICD-11")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "icdassist version")
}

func TestIngestCmd_Executes(t *testing.T) {
	ingest, _, _ := setupTestServices(t)
	ingest.report.Failures = []domain.FileFailure{{File: "bad.json", Reason: "parsing entity"}}

	out, err := execute(t, "ingest", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "Ingested 2 records")
	assert.Contains(t, out, "bad.json")
}

func TestIndexCmd_Executes(t *testing.T) {
	_, index, _ := setupTestServices(t)

	out, err := execute(t, "index")
	require.NoError(t, err)

	assert.Equal(t, 1, index.builds)
	assert.Zero(t, index.resets)
	assert.Contains(t, out, "Indexed 10 chunks from 2 records")
}

func TestIndexCmd_ResetFlag(t *testing.T) {
	_, index, _ := setupTestServices(t)

	out, err := execute(t, "index", "--reset")
	require.NoError(t, err)

	assert.Equal(t, 1, index.resets)
	assert.Equal(t, 1, index.builds)
	assert.Contains(t, out, "Checkpoint discarded")
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_Executes(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "ask", "what is cholera?")
	require.NoError(t, err)

	assert.Contains(t, out, "Cholera is an acute infection.")
	assert.Contains(t, out, "[1A00](https://icd.who.int/browse/1A00)")
}

func TestAskCmd_JSONFlag(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "ask", "--json", "what is cholera?")
	require.NoError(t, err)

	assert.Contains(t, out, `"text": "Cholera is an acute infection."`)
	assert.Contains(t, out, `"code": "1A00"`)
	assert.Contains(t, out, `"fallback": false`)
}

func TestAskCmd_OutputModeDoesNotLeak(t *testing.T) {
	// Subtests run in order; the plain run must not inherit --json from
	// the run before it.
	t.Run("json run", func(t *testing.T) {
		setupTestServices(t)
		out, err := execute(t, "ask", "--json", "what is cholera?")
		require.NoError(t, err)
		assert.Contains(t, out, `"text"`)
	})

	t.Run("plain run after json run", func(t *testing.T) {
		setupTestServices(t)
		out, err := execute(t, "ask", "what is cholera?")
		require.NoError(t, err)
		assert.NotContains(t, out, `"text"`)
		assert.Contains(t, out, "ICD-11 references")
	})
}

func TestAskCmd_FallbackAnswer(t *testing.T) {
	_, _, assistant := setupTestServices(t)
	assistant.answer = domain.Answer{Text: domain.FallbackAnswer, Fallback: true}

	out, err := execute(t, "ask", "what is xyzzyosis?")
	require.NoError(t, err)

	assert.Contains(t, out, domain.FallbackAnswer)
	assert.Contains(t, out, domain.NoMatchMarker)
}

func TestIngestCmd_HasOutFlag(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("out")
	require.NotNil(t, flag)
	assert.Equal(t, "o", flag.Shorthand)
}

func TestIndexCmd_HasResetFlag(t *testing.T) {
	flag := indexCmd.Flags().Lookup("reset")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
