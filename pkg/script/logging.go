package script

import "time"

// LogEvent describes an evaluation attempt for logging.
type LogEvent struct {
	Engine   string
	Expr     string
	Key      string
	Duration time.Duration
	Err      error
}

// Logger records evaluator events.
type Logger interface {
	LogEvaluation(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvaluation implements Logger.
func (f LoggerFunc) LogEvaluation(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvaluation(LogEvent) {}

// WithLogger wraps next so every Evaluate call (including calls through
// compiled programs) is timed and reported to logger.
func WithLogger(next Evaluator, logger Logger) Evaluator {
	if next == nil {
		return nil
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &loggedEvaluator{next: next, logger: logger}
}

type loggedEvaluator struct {
	next   Evaluator
	logger Logger
}

func (e *loggedEvaluator) Evaluate(env Env, expr string) (any, error) {
	start := time.Now()
	value, err := e.next.Evaluate(env, expr)
	e.report(expr, env.Key, time.Since(start), err)
	return value, err
}

func (e *loggedEvaluator) Compile(expr string) (Program, error) {
	program, err := e.next.Compile(expr)
	if err != nil {
		e.report(expr, "", 0, err)
		return nil, err
	}
	return &loggedProgram{evaluator: e, program: program, expr: expr}, nil
}

func (e *loggedEvaluator) report(expr, key string, duration time.Duration, err error) {
	e.logger.LogEvaluation(LogEvent{
		Engine:   EngineName(e.next),
		Expr:     expr,
		Key:      key,
		Duration: duration,
		Err:      wrapEvaluationError(EngineName(e.next), expr, key, err),
	})
}

type loggedProgram struct {
	evaluator *loggedEvaluator
	program   Program
	expr      string
}

func (p *loggedProgram) Evaluate(env Env) (any, error) {
	start := time.Now()
	value, err := p.program.Evaluate(env)
	p.evaluator.report(p.expr, env.Key, time.Since(start), err)
	return value, err
}
