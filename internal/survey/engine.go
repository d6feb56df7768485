package survey

import (
	"context"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/metrics"
)

const (
	DefaultLimit = 20

	// DefaultSampleColumn is the membership question samples are stratified by.
	DefaultSampleColumn = "Please indicate the category which best describes your company's membership."
)

type QueryType string

const (
	QueryFilter  QueryType = "filter"
	QuerySummary QueryType = "summary"
	QueryStats   QueryType = "stats"
	QuerySample  QueryType = "sample"
)

// Request is the body accepted by the query endpoint and the query_survey_data tool.
type Request struct {
	QueryType QueryType `json:"queryType"`
	Filters   Filters   `json:"filters,omitempty"`
	Columns   []string  `json:"columns,omitempty"`
	Limit     *int      `json:"limit,omitempty"`
}

func (r Request) limit() (int, error) {
	if r.Limit == nil {
		return DefaultLimit, nil
	}
	if *r.Limit < 0 {
		return 0, apperrors.NewMalformedRequestError("limit must not be negative")
	}
	return *r.Limit, nil
}

type FilterResult struct {
	Data       []Response `json:"data"`
	TotalCount int        `json:"totalCount"`
	Limit      int        `json:"limit"`
}

type SummaryResult struct {
	TotalResponses  int         `json:"totalResponses"`
	ColumnCount     int         `json:"columnCount"`
	ColumnSummaries StatsResult `json:"columnSummaries,omitempty"`
}

type Engine struct {
	data         *Dataset
	sampleColumn string
}

type Option func(*Engine)

// WithSampleColumn overrides the column used to stratify samples.
func WithSampleColumn(column string) Option {
	return func(e *Engine) {
		if column != "" {
			e.sampleColumn = column
		}
	}
}

func NewEngine(data *Dataset, opts ...Option) *Engine {
	if data == nil {
		data = NewDataset(nil)
	}
	e := &Engine{data: data, sampleColumn: DefaultSampleColumn}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query dispatches on the request's query type. An unknown type fails with INVALID_QUERY.
func (e *Engine) Query(req Request) (result any, err error) {
	label := string(req.QueryType)
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.SurveyQueries.WithLabelValues(label, outcome).Inc()
	}()

	switch req.QueryType {
	case QueryFilter:
		limit, err := req.limit()
		if err != nil {
			return nil, err
		}
		return e.Filter(req.Filters, req.Columns, limit)
	case QuerySummary:
		return e.Summary(req.Columns), nil
	case QueryStats:
		if len(req.Columns) == 0 {
			return nil, apperrors.NewMalformedRequestError("stats query requires columns")
		}
		return e.Stats(req.Columns), nil
	case QuerySample:
		limit, err := req.limit()
		if err != nil {
			return nil, err
		}
		return e.Sample(limit), nil
	default:
		label = "invalid"
		return nil, apperrors.NewInvalidQueryError(string(req.QueryType))
	}
}

// RunQuery lets the engine serve as an in-process query runner for the relay.
func (e *Engine) RunQuery(ctx context.Context, req Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Query(req)
}

// Filter returns the first limit rows matching all filters, projected to
// columns when any are given. TotalCount is the match count before the limit.
func (e *Engine) Filter(filters Filters, columns []string, limit int) (FilterResult, error) {
	if err := filters.validate(); err != nil {
		return FilterResult{}, apperrors.NewMalformedRequestError(err.Error())
	}

	matched := make([]Response, 0)
	for _, row := range e.data.responses {
		if filters.Match(row) {
			matched = append(matched, row)
		}
	}
	total := len(matched)
	if limit < total {
		matched = matched[:limit]
	}
	if len(columns) > 0 {
		for i, row := range matched {
			matched[i] = project(row, columns)
		}
	}
	return FilterResult{Data: matched, TotalCount: total, Limit: limit}, nil
}

func project(row Response, columns []string) Response {
	out := make(Response, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}

// Summary reports dataset size and the first record's column count, plus
// per-column stats for any requested columns.
func (e *Engine) Summary(columns []string) SummaryResult {
	out := SummaryResult{TotalResponses: e.data.Len()}
	if e.data.Len() > 0 {
		out.ColumnCount = len(e.data.responses[0])
	}
	if len(columns) > 0 {
		out.ColumnSummaries = e.Stats(columns)
	}
	return out
}
