// Package analyzer rewrites expression trees before their evaluation. Its
// main rule finds, for every absolute path, an index query selecting the
// documents the path depends on, and replaces the root of the path with a
// search of those documents.
package analyzer

import (
	"os"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/expression"
	"github.com/msokolov/lux/xquery/index"
)

const debugAnalyzerKey = "DEBUG_ANALYZER"

const maxAnalysisIterations = 1000

// ErrMaxAnalysisIters is thrown when the analysis iterations are exceeded
var ErrMaxAnalysisIters = errors.NewKind("exceeded max analysis iterations (%d)")

// Builder creates analyzers with the default batches and, around them,
// custom rules.
type Builder struct {
	preAnalyzeRules  []Rule
	postAnalyzeRules []Rule
	cfg              *index.Config
	fields           *xquery.FieldRegistry
	debug            bool
}

// NewBuilder creates a new Builder for an index with the given
// configuration and fields. fields may be nil.
func NewBuilder(cfg *index.Config, fields *xquery.FieldRegistry) *Builder {
	if fields == nil {
		fields = xquery.NewFieldRegistry()
	}
	return &Builder{cfg: cfg, fields: fields}
}

// WithDebug activates debug on the Analyzer.
func (ab *Builder) WithDebug() *Builder {
	ab.debug = true
	return ab
}

// AddPreAnalyzeRule adds a rule applied before the default rules.
func (ab *Builder) AddPreAnalyzeRule(name string, fn RuleFunc) *Builder {
	ab.preAnalyzeRules = append(ab.preAnalyzeRules, Rule{name, fn})
	return ab
}

// AddPostAnalyzeRule adds a rule applied after the default rules.
func (ab *Builder) AddPostAnalyzeRule(name string, fn RuleFunc) *Builder {
	ab.postAnalyzeRules = append(ab.postAnalyzeRules, Rule{name, fn})
	return ab
}

// Build creates a new Analyzer. Debug is also enabled by the
// DEBUG_ANALYZER environment variable.
func (ab *Builder) Build() *Analyzer {
	_, debug := os.LookupEnv(debugAnalyzerKey)
	return &Analyzer{
		Debug: debug || ab.debug,
		Batches: []*Batch{
			{"pre-analyzer", maxAnalysisIterations, ab.preAnalyzeRules},
			{"once-before", 1, OnceBeforeDefault},
			{"optimize", 1, OptimizationRules},
			{"post-analyzer", maxAnalysisIterations, ab.postAnalyzeRules},
		},
		Config: ab.cfg,
		Fields: ab.fields,
	}
}

// Analyzer applies batches of rules to expressions. An Analyzer must not
// be used by several goroutines at once.
type Analyzer struct {
	// Debug logs every rewrite.
	Debug bool
	// Batches of Rules to apply.
	Batches []*Batch
	// Config of the index the expressions run against.
	Config *index.Config
	// Fields configured in the index.
	Fields *xquery.FieldRegistry

	log *logrus.Entry
}

// Log prints an info message, with the batch and rule being applied as
// fields, if the analyzer is in debug mode.
func (a *Analyzer) Log(msg string, args ...interface{}) {
	if a == nil || !a.Debug {
		return
	}
	a.entry().Infof(msg, args...)
}

func (a *Analyzer) entry() *logrus.Entry {
	if a.log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return a.log
}

// scope adds a field to the log messages of the analyzer until the
// returned function is called.
func (a *Analyzer) scope(key, value string) func() {
	if a == nil {
		return func() {}
	}

	prev := a.log
	a.log = a.entry().WithField(key, value)
	return func() { a.log = prev }
}

// logRewrite logs the result of a rule that changed the expression.
func (a *Analyzer) logRewrite(before, after xquery.Expression) {
	if a == nil || !a.Debug || after == nil || expressionsEqual(before, after) {
		return
	}
	a.Log("rewritten to\n%s", expression.DebugString(after))
}

// Analyze applies every batch to the expression.
func (a *Analyzer) Analyze(ctx *xquery.Context, e xquery.Expression) (xquery.Expression, error) {
	span, ctx := ctx.Span("analyze", opentracing.Tags{
		"expression": e.String(),
	})
	defer span.Finish()

	a.Log("starting analysis of %s", e)

	result := e
	for _, batch := range a.Batches {
		done := a.scope("batch", batch.Desc)
		next, err := batch.Eval(ctx, a, result)
		done()

		switch {
		case ErrMaxAnalysisIters.Is(err):
			a.Log(err.Error())
		case err != nil:
			return nil, err
		}
		result = next
	}

	span.SetTag("result", result.String())
	return result, nil
}
