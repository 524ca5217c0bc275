package service

import (
	"context"
	"database/sql"
	"fmt"
	"intelliquery"
	"intelliquery/internal/api/models"
	"intelliquery/internal/observability"
	"intelliquery/pkg"
	"strings"

	"github.com/rs/zerolog"
)

const (
	extractionFailedMessage = "Failed to extract SQL query from the response."
	noDataMessage           = "No data found for the given query."
	noSampleText            = "no sample available"
)

type ChatServiceOptions struct {
	Logger        zerolog.Logger
	DB            *sql.DB
	Connection    models.DBConnectionConfig
	Profile       models.SchemaProfile
	Strategy      models.CorrectionStrategy
	Embedder      pkg.Embedder
	Completer     pkg.Completer
	Retry         pkg.RetryPolicy
	ReadOnlyGuard bool
	Audit         *AuditService
}

// ChatService answers one property-tax question per call. It holds no per-request state.
type ChatService struct {
	logger        zerolog.Logger
	db            *sql.DB
	schema        *SchemaService
	corrector     *pkg.NameCorrector
	embedder      pkg.Embedder
	completer     pkg.Completer
	retry         pkg.RetryPolicy
	readOnlyGuard bool
	audit         *AuditService
}

func NewChatService(ctx context.Context) (*ChatService, error) {
	cfg := intelliquery.GetConfig()

	profile, err := models.LoadSchemaProfile(cfg.Schema.ProfilePath)
	if err != nil {
		return nil, err
	}
	strategy, err := models.ParseCorrectionStrategy(cfg.Schema.CorrectionStrategy)
	if err != nil {
		return nil, err
	}

	embedder, err := pkg.NewEmbedder(ctx, pkg.EmbedderConfig{
		Provider:      cfg.Embedding.Provider,
		Model:         cfg.Embedding.Model,
		OpenAIKey:     cfg.LLM.OpenAIKey,
		OpenAIBaseURL: cfg.LLM.OpenAIBaseURL,
		OllamaHost:    cfg.LLM.OllamaHost,
		GenAIKey:      cfg.Embedding.GenAIKey,
		TaskType:      cfg.Embedding.TaskType,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	completer, err := pkg.NewCompleter(pkg.CompleterConfig{
		Provider:          cfg.LLM.Provider,
		Model:             cfg.LLM.Model,
		OpenAIKey:         cfg.LLM.OpenAIKey,
		OpenAIBaseURL:     cfg.LLM.OpenAIBaseURL,
		OllamaHost:        cfg.LLM.OllamaHost,
		HuggingFaceAPIKey: cfg.LLM.HuggingFaceAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("completion provider: %w", err)
	}

	retry := pkg.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Upstream.MaxRetries
	retry.BaseDelay = cfg.Upstream.RetryDelay
	retry.AttemptTimeout = cfg.Upstream.Timeout

	return NewChatServiceWithOptions(ChatServiceOptions{
		Logger:        intelliquery.Logger,
		DB:            intelliquery.DB,
		Connection:    cfg.MainDatabase,
		Profile:       profile,
		Strategy:      strategy,
		Embedder:      embedder,
		Completer:     completer,
		Retry:         retry,
		ReadOnlyGuard: cfg.Schema.ReadOnlyGuard,
		Audit:         NewAuditService(),
	}), nil
}

func NewChatServiceWithOptions(opts ChatServiceOptions) *ChatService {
	return &ChatService{
		logger:        opts.Logger,
		db:            opts.DB,
		schema:        NewSchemaServiceWithDB(opts.DB, opts.Connection, opts.Profile),
		corrector:     pkg.NewNameCorrector(opts.Profile, opts.Strategy),
		embedder:      opts.Embedder,
		completer:     opts.Completer,
		retry:         opts.Retry,
		readOnlyGuard: opts.ReadOnlyGuard,
		audit:         opts.Audit,
	}
}

// HandleChat runs the whole question-to-answer pipeline. Only failures to read the schema or
// sample data and failures of the model services come back as errors; a statement that cannot
// be extracted or executed is still a normal answer.
func (slf *ChatService) HandleChat(ctx context.Context, query string) (models.ChatResult, error) {
	logger := slf.loggerFor(ctx)
	logger.Info().Str("query", query).Msg("Received query")

	query = strings.ToLower(query)

	columns, err := slf.Columns(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching column names")
		observability.RecordChatOutcome("schema_error")
		return models.ChatResult{}, err
	}
	logger.Info().Strs("columns", columns).Msg("Available columns in the view")

	sample, err := slf.fetchSampleRow(ctx, columns)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching sample data")
		observability.RecordChatOutcome("sample_error")
		return models.ChatResult{}, err
	}

	column, prompt, err := slf.buildContext(ctx, query, columns, sample)
	if err != nil {
		logger.Error().Err(err).Msg("Error preparing context")
		observability.RecordChatOutcome("upstream_error")
		return models.ChatResult{}, err
	}

	logger.Info().Msg("Sending context to the language model")
	rawResponse, err := slf.complete(ctx, prompt)
	if err != nil {
		logger.Error().Err(err).Msg("Error requesting completion")
		observability.RecordChatOutcome("upstream_error")
		return models.ChatResult{}, err
	}
	logger.Debug().Str("raw_response", rawResponse).Msg("Language model raw response")

	audit := AuditEntry{Query: query, Column: column}

	sqlQuery, ok := pkg.ExtractSQL(rawResponse)
	if !ok {
		logger.Error().Msg("Failed to extract SQL query from the model response")
		result := models.ChatResult{Response: extractionFailedMessage, Outcome: models.OutcomeExtractionFailed, Column: column}
		slf.finish(ctx, audit, result)
		return result, nil
	}
	logger.Info().Str("sql", sqlQuery).Msg("Extracted SQL query")
	audit.ExtractedSQL = sqlQuery

	corrected := slf.corrector.Correct(sqlQuery)
	logger.Info().Str("sql", corrected).Msg("Corrected SQL query")
	audit.CorrectedSQL = corrected

	result := slf.execute(ctx, query, corrected)
	result.Column = column
	slf.finish(ctx, audit, result)
	return result, nil
}

// Columns returns the ordered column names of the view.
func (slf *ChatService) Columns(ctx context.Context) ([]string, error) {
	return slf.schema.Columns(ctx)
}

// CorrectSQL exposes the configured name correction without touching the database.
func (slf *ChatService) CorrectSQL(sqlQuery string) string {
	return slf.corrector.Correct(sqlQuery)
}

func (slf *ChatService) fetchSampleRow(ctx context.Context, columns []string) (map[string]any, error) {
	row, err := slf.schema.SampleRow(ctx, columns)
	if err != nil {
		return nil, err
	}
	if row == nil {
		slf.loggerFor(ctx).Warn().Msg("No sample data fetched; the result is empty")
		return map[string]any{}, nil
	}
	slf.loggerFor(ctx).Debug().Interface("sample", row).Msg("Sample data fetched")
	return row, nil
}

// buildContext picks the column closest to the question and phrases the model instruction.
func (slf *ChatService) buildContext(ctx context.Context, query string, columns []string, sample map[string]any) (string, string, error) {
	index, score, err := pkg.FindBestMatch(ctx, pkg.EmbedderFunc(slf.embed), columns, query)
	if err != nil {
		return "", "", err
	}
	column := columns[index]
	slf.loggerFor(ctx).Info().Str("column", column).Float64("score", score).Msg("Best matching column for query")

	return column, BuildPrompt(column, sample, query), nil
}

// BuildPrompt phrases the instruction sent to the language model.
func BuildPrompt(column string, sample map[string]any, query string) string {
	sampleText := noSampleText
	if value, ok := sample[column]; ok {
		sampleText = formatValue(value)
	}
	return fmt.Sprintf(
		"The user is asking about '%s'. Here is a sample data row from this column: %s. "+
			"Please generate an SQL query to fetch relevant data for the user's query: '%s'.",
		column, sampleText, query,
	)
}

func (slf *ChatService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, _, err := pkg.Retry(ctx, slf.retry, func(ctx context.Context) ([][]float32, error) {
		vectors, err := slf.embedder.Embed(ctx, texts)
		observability.RecordUpstreamCall("embedding", err)
		if err != nil {
			slf.loggerFor(ctx).Warn().Err(err).Msg("Embedding request failed")
		}
		return vectors, err
	})
	return vectors, err
}

func (slf *ChatService) complete(ctx context.Context, prompt string) (string, error) {
	text, attempts, err := pkg.Retry(ctx, slf.retry, func(ctx context.Context) (string, error) {
		text, err := slf.completer.Complete(ctx, prompt)
		observability.RecordUpstreamCall("completion", err)
		if err != nil {
			slf.loggerFor(ctx).Warn().Err(err).Msg("Completion request failed")
		}
		return text, err
	})
	if err != nil {
		return "", fmt.Errorf("%w: completion failed after %d attempt(s): %w", pkg.ErrUpstreamService, attempts, err)
	}
	return text, nil
}

func (slf *ChatService) execute(ctx context.Context, query string, sqlQuery string) models.ChatResult {
	logger := slf.loggerFor(ctx)

	if slf.readOnlyGuard && !pkg.IsSafeSelect(sqlQuery) {
		logger.Warn().Str("sql", sqlQuery).Msg("Refusing to execute a statement that is not a read-only SELECT")
		return executionFailed(sqlQuery, pkg.ErrUnsafeStatement)
	}

	logger.Info().Msg("Executing the corrected SQL query")
	value, err := pkg.QueryScalar(ctx, slf.db, sqlQuery)
	if err != nil {
		logger.Error().Err(err).Msg("SQL execution error")
		return executionFailed(sqlQuery, err)
	}
	if isEmptyValue(value) {
		logger.Info().Msg("No data found for the given query")
		return models.ChatResult{Response: noDataMessage, Outcome: models.OutcomeNoData, SQL: sqlQuery}
	}

	response := fmt.Sprintf("The result for your query '%s' is: %s.", query, formatValue(value))
	logger.Info().Str("response", response).Msg("Query executed successfully")
	return models.ChatResult{Response: response, Outcome: models.OutcomeAnswered, SQL: sqlQuery}
}

func (slf *ChatService) finish(ctx context.Context, entry AuditEntry, result models.ChatResult) {
	observability.RecordChatOutcome(string(result.Outcome))
	entry.Outcome = string(result.Outcome)
	slf.audit.Record(ctx, entry)
}

func (slf *ChatService) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &slf.logger
}

func executionFailed(sqlQuery string, err error) models.ChatResult {
	return models.ChatResult{
		Response: fmt.Sprintf("Error executing the SQL query: %s", err.Error()),
		Outcome:  models.OutcomeExecutionFailed,
		SQL:      sqlQuery,
	}
}

func isEmptyValue(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func formatValue(value any) string {
	if value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", value)
}
