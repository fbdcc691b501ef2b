// cmd/worker-manager/adapters.go
package main

import (
	"ria-hunter/internal/app"
	"ria-hunter/internal/common/logger"
	pgqueries "ria-hunter/internal/workers/data-access/query-postgresql/queries"
	dql "ria-hunter/internal/workers/ria-search/decompose-query-llm"
	dqr "ria-hunter/internal/workers/ria-search/decompose-query-rules"
	mrc "ria-hunter/internal/workers/ria-search/merge-rank-candidates"
	ss "ria-hunter/internal/workers/ria-search/select-strategy"
)

// Logger adapters for workers that declare their own Logger interfaces

type rulesLoggerAdapter struct {
	logger.Logger
}

func (a *rulesLoggerAdapter) With(fields map[string]interface{}) dqr.Logger {
	return &rulesLoggerAdapter{a.Logger.With(fields)}
}

type llmLoggerAdapter struct {
	logger.Logger
}

func (a *llmLoggerAdapter) With(fields map[string]interface{}) dql.Logger {
	return &llmLoggerAdapter{a.Logger.With(fields)}
}

type selectLoggerAdapter struct {
	logger.Logger
}

func (a *selectLoggerAdapter) With(fields map[string]interface{}) ss.Logger {
	return &selectLoggerAdapter{a.Logger.With(fields)}
}

type mergeLoggerAdapter struct {
	logger.Logger
}

func (a *mergeLoggerAdapter) With(fields map[string]interface{}) mrc.Logger {
	return &mergeLoggerAdapter{a.Logger.With(fields)}
}

func searchRepository(stores *app.Stores) *pgqueries.Repository {
	return pgqueries.NewRepository(stores.Postgres.DB)
}
