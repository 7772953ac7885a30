// Package query exposes parameterized SQL++ statement execution as a thin
// passthrough over a core.QueryRunner.
package query

import (
	"context"
	"strings"

	"github.com/hupe1980/couchmesh/core"
)

// Runner executes statements through an underlying QueryRunner, typically
// the managed couchbase handle.
type Runner struct {
	runner core.QueryRunner
}

// New wraps the given QueryRunner.
func New(runner core.QueryRunner) *Runner {
	return &Runner{runner: runner}
}

// Execute runs the statement with named parameters and returns all rows.
func (r *Runner) Execute(ctx context.Context, statement string, named map[string]any) ([]map[string]any, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, core.Errorf(core.KindValidation, "query", "", "statement is required")
	}
	return r.runner.Query(ctx, statement, named)
}
