// Package engine orchestrates issue transitions through the workflow table.
//
// The engine drives three operations: single-step advance, single-step
// regress, and multi-step run-to-completion. Each attempts transitions via
// the tracker boundary, classifies rejections, and recovers by resolving
// alternate transition labels, falling back to configured aliases, or
// suspending the operation until missing field values are supplied.
//
// Key types:
//   - [Engine] - the orchestrator; one suspended operation at a time
//   - [StepResult] - outcome of one advance/regress
//   - [RunReport] - outcome and partial progress of a chain
//   - [MissingFieldsError] - recoverable suspension awaiting field input
//   - [RejectedError] - terminal refusal carrying the tracker's message
//
// One issue is driven by one sequential, non-reentrant operation at a time;
// the engine never parallelizes steps of the same run. Concurrent runs on
// the same issue key from different call sites are a caller responsibility
// to avoid.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jiraflow/internal/assign"
	"jiraflow/internal/autofill"
	"jiraflow/internal/jira"
	"jiraflow/internal/transition"
	"jiraflow/internal/workflow"
)

// DefaultPace is the cooperative delay between steps of a chain. The
// tracker applies its own side effects (notifications, webhooks) per step;
// pacing keeps those from overlapping.
const DefaultPace = 2 * time.Second

// Options adjust one engine operation.
type Options struct {
	// Force proceeds past a failed field auto-fill gate after the error has
	// been recorded, instead of blocking the transition.
	Force bool
}

// StepResult is the outcome of one successful or partially evaluated
// single-step operation.
type StepResult struct {
	IssueKey string

	// From and To are canonical stage names.
	From string
	To   string

	// Label is the transition label that actually succeeded; it may differ
	// from To when the resolver or an alias supplied it.
	Label string

	// Fill is the auto-fill outcome when the field gate ran.
	Fill *autofill.Result

	// Assign is the best-effort auto-assign outcome after success.
	Assign assign.Result
}

// RunReport is the outcome of a run-to-completion chain, including partial
// progress when the chain halted or suspended.
type RunReport struct {
	IssueKey string

	// Start is the canonical stage the run began at.
	Start string

	// Completed lists the stages reached, in order.
	Completed []string

	// FailedAt is the stage whose transition failed, empty on full success.
	FailedAt string

	// MissingFields holds the field names a suspension is waiting on.
	MissingFields []string

	// Suspended is true when the run is paused awaiting field input and can
	// be resumed with [Engine.Resume].
	Suspended bool
}

// StepCallback is invoked before each step of a chain begins, with the
// 1-based step index, total step count, and target stage name.
type StepCallback func(stepIndex, totalSteps int, stage string)

// runMode identifies which operation a suspension belongs to.
type runMode int

const (
	modeAdvance runMode = iota
	modeRegress
	modeChain
)

// suspension is a paused operation awaiting externally supplied fields.
type suspension struct {
	issue  *jira.Issue
	opts   Options
	mode   runMode
	stage  string
	fields []string
}

// Suspension describes the currently suspended operation, if any.
type Suspension struct {
	IssueKey string
	Stage    string
	Fields   []string
	Chain    bool
}

// Engine orchestrates transitions for one issue at a time.
//
// Create with [New]; configure optional collaborators with the Set methods.
// The zero value is not usable.
type Engine struct {
	table      *workflow.Table
	store      jira.IssueStore
	filler     *autofill.Filler
	assigner   *assign.Assigner
	resolver   *transition.Resolver
	classifier *transition.Classifier

	// aliases maps uppercase canonical stage name to fallback transition
	// labels, tried in order after the resolver yields nothing.
	aliases map[string][]string

	// exempt categories skip the field auto-fill gate entirely.
	exempt map[string]bool

	pace     time.Duration
	sleep    func(time.Duration)
	progress StepCallback

	suspended *suspension
}

// New creates an [Engine] with default resolver, classifier and pacing.
//
// The filler and assigner may be nil, disabling the field gate and
// auto-assignment respectively.
func New(table *workflow.Table, store jira.IssueStore, filler *autofill.Filler, assigner *assign.Assigner) *Engine {
	return &Engine{
		table:      table,
		store:      store,
		filler:     filler,
		assigner:   assigner,
		resolver:   transition.NewResolver(),
		classifier: transition.NewClassifier(),
		aliases:    make(map[string][]string),
		exempt:     make(map[string]bool),
		pace:       DefaultPace,
		sleep:      time.Sleep,
	}
}

// SetResolver replaces the default transition label resolver.
func (e *Engine) SetResolver(r *transition.Resolver) {
	e.resolver = r
}

// SetClassifier replaces the default rejection classifier.
func (e *Engine) SetClassifier(c *transition.Classifier) {
	e.classifier = c
}

// SetAliases configures fallback transition labels per canonical stage name,
// tried in order when the resolver yields no candidate.
func (e *Engine) SetAliases(aliases map[string][]string) {
	e.aliases = make(map[string][]string, len(aliases))
	for stage, labels := range aliases {
		e.aliases[strings.ToUpper(stage)] = labels
	}
}

// SetExemptCategories configures issue categories that skip the field
// auto-fill gate.
func (e *Engine) SetExemptCategories(categories []string) {
	e.exempt = make(map[string]bool, len(categories))
	for _, c := range categories {
		e.exempt[strings.ToLower(c)] = true
	}
}

// SetPace overrides the inter-step delay for chains.
func (e *Engine) SetPace(d time.Duration) {
	e.pace = d
}

// SetSleeper overrides the sleep function (tests inject a recorder).
func (e *Engine) SetSleeper(sleep func(time.Duration)) {
	e.sleep = sleep
}

// SetProgressCallback configures an optional per-step progress callback for
// run-to-completion chains.
func (e *Engine) SetProgressCallback(cb StepCallback) {
	e.progress = cb
}

// Table returns the workflow table, for read-only presentation queries.
func (e *Engine) Table() *workflow.Table {
	return e.table
}

// Suspended describes the operation currently awaiting field input, or nil.
func (e *Engine) Suspended() *Suspension {
	if e.suspended == nil {
		return nil
	}
	return &Suspension{
		IssueKey: e.suspended.issue.Key,
		Stage:    e.suspended.stage,
		Fields:   e.suspended.fields,
		Chain:    e.suspended.mode == modeChain,
	}
}

// Advance moves the issue one stage forward.
//
// When the next stage requires fields (or is the terminal stage for a
// non-exempt category), the field auto-filler runs first; fields it cannot
// derive suspend the operation with a [*MissingFieldsError]. A fill write
// failure blocks the transition unless opts.Force.
//
// On a tracker rejection the engine classifies the message: a missing-field
// rejection suspends; otherwise the resolver is consulted for an alternate
// label (retried exactly once), then the configured aliases in order; when
// all fail the original rejection surfaces as a [*RejectedError].
//
// On success the local issue status is updated optimistically and the role
// auto-assigner runs best-effort.
func (e *Engine) Advance(ctx context.Context, issue *jira.Issue, opts Options) (*StepResult, error) {
	current, err := e.currentStage(issue)
	if err != nil {
		return nil, err
	}
	next, ok := e.table.Next(current, issue.Category)
	if !ok {
		return nil, ErrAtFinalStage
	}

	result := &StepResult{IssueKey: issue.Key, From: current, To: next.Name}

	if e.gated(next, issue.Category) {
		fill, err := e.filler.AutoFill(ctx, issue.Key)
		result.Fill = &fill
		if err != nil && !opts.Force {
			return result, fmt.Errorf("field auto-fill before %s: %w", next.Name, err)
		}
		if len(fill.StillMissing) > 0 {
			return result, e.suspend(issue, opts, modeAdvance, next.Name, fill.StillMissing)
		}
	}

	label, err := e.transitionWithFallback(ctx, issue, next, opts, modeAdvance)
	if err != nil {
		return result, err
	}

	result.Label = label
	issue.Status = next.Name
	result.Assign = e.autoAssign(ctx, issue, next)
	return result, nil
}

// Regress moves the issue one stage backward.
//
// Same shape as [Engine.Advance] without the field gate: moving back never
// requires prerequisite data. The auto-assigner still runs best-effort
// after success, since moving back into a role-mapped stage is equally
// valid.
func (e *Engine) Regress(ctx context.Context, issue *jira.Issue) (*StepResult, error) {
	current, err := e.currentStage(issue)
	if err != nil {
		return nil, err
	}
	previous, ok := e.table.Previous(current, issue.Category)
	if !ok {
		return nil, ErrAtFirstStage
	}

	result := &StepResult{IssueKey: issue.Key, From: current, To: previous.Name}

	label, err := e.transitionWithFallback(ctx, issue, previous, Options{}, modeRegress)
	if err != nil {
		return result, err
	}

	result.Label = label
	issue.Status = previous.Name
	result.Assign = e.autoAssign(ctx, issue, previous)
	return result, nil
}

// RunToCompletion drives the issue through every remaining stage to the
// terminal one, strictly in order, with the configured pacing delay between
// steps.
//
// The field auto-fill gate runs once, up front (the chain ends at the
// terminal stage). Mid-chain there is no resolver or alias fallback: a
// rejection halts the chain, preserving the completed list and the issue's
// reached status. A missing-field rejection suspends instead; resuming
// continues from the current (already advanced) status, not the original
// starting stage. Cancellation is checked before each step; completed steps
// are never rolled back.
func (e *Engine) RunToCompletion(ctx context.Context, issue *jira.Issue, opts Options) (*RunReport, error) {
	current, err := e.currentStage(issue)
	if err != nil {
		return nil, err
	}

	report := &RunReport{IssueKey: issue.Key, Start: current}
	remaining := e.table.Remaining(current, issue.Category)
	if len(remaining) == 0 {
		return report, nil
	}

	if e.filler != nil && !e.exempt[strings.ToLower(issue.Category)] {
		fill, err := e.filler.AutoFill(ctx, issue.Key)
		if err != nil && !opts.Force {
			return report, fmt.Errorf("field auto-fill before chain: %w", err)
		}
		if len(fill.StillMissing) > 0 {
			report.Suspended = true
			report.MissingFields = fill.StillMissing
			return report, e.suspend(issue, opts, modeChain, remaining[0].Name, fill.StillMissing)
		}
	}

	total := len(remaining)
	for i, stage := range remaining {
		if err := ctx.Err(); err != nil {
			report.FailedAt = stage.Name
			return report, err
		}
		if e.progress != nil {
			e.progress(i+1, total, stage.Name)
		}

		if err := e.store.AttemptTransition(ctx, issue.Key, stage.Name); err != nil {
			report.FailedAt = stage.Name

			var rej *jira.RejectionError
			if !errors.As(err, &rej) {
				return report, err
			}
			cls := e.classifier.Classify(rej.Message)
			if cls.Kind == transition.KindMissingFields {
				report.Suspended = true
				report.MissingFields = cls.Fields
				return report, e.suspend(issue, opts, modeChain, stage.Name, cls.Fields)
			}
			return report, &RejectedError{IssueKey: issue.Key, Stage: stage.Name, Label: stage.Name, Message: rej.Message}
		}

		issue.Status = stage.Name
		report.Completed = append(report.Completed, stage.Name)
		e.autoAssign(ctx, issue, stage)

		if i < total-1 {
			e.sleep(e.pace)
		}
	}

	return report, nil
}

// Resume continues the suspended operation after the missing field values
// have been supplied.
//
// Non-empty fields are written to the tracker first; the suspended
// operation then re-runs from the issue's current status. Returns
// [ErrNothingSuspended] when no operation is awaiting input.
func (e *Engine) Resume(ctx context.Context, fields map[string]string) (*RunReport, error) {
	s := e.suspended
	if s == nil {
		return nil, ErrNothingSuspended
	}

	if len(fields) > 0 {
		if err := e.store.WriteFields(ctx, s.issue.Key, fields); err != nil {
			return nil, fmt.Errorf("failed to write supplied fields for %s: %w", s.issue.Key, err)
		}
	}
	e.suspended = nil

	switch s.mode {
	case modeChain:
		return e.RunToCompletion(ctx, s.issue, s.opts)
	case modeRegress:
		res, err := e.Regress(ctx, s.issue)
		return stepReport(res, err), err
	default:
		res, err := e.Advance(ctx, s.issue, s.opts)
		return stepReport(res, err), err
	}
}

// stepReport converts a single-step outcome into the chain report shape
// Resume returns.
func stepReport(res *StepResult, err error) *RunReport {
	if res == nil {
		return nil
	}
	report := &RunReport{IssueKey: res.IssueKey, Start: res.From}
	if err == nil {
		report.Completed = []string{res.To}
		return report
	}
	report.FailedAt = res.To
	var mf *MissingFieldsError
	if errors.As(err, &mf) {
		report.Suspended = true
		report.MissingFields = mf.Fields
	}
	return report
}

// currentStage normalizes the issue's status and rejects unrecognized ones.
func (e *Engine) currentStage(issue *jira.Issue) (string, error) {
	current := e.table.Normalize(issue.Status)
	if _, ok := e.table.StageOf(current); !ok {
		return "", fmt.Errorf("%s has status %q: %w", issue.Key, issue.Status, ErrUnrecognizedStatus)
	}
	return current, nil
}

// gated reports whether the field auto-fill gate must run before entering
// the target stage.
func (e *Engine) gated(target workflow.Stage, category string) bool {
	if e.filler == nil || e.exempt[strings.ToLower(category)] {
		return false
	}
	return len(target.RequiredFields) > 0 || e.table.IsTerminal(target.Name, category)
}

// transitionWithFallback attempts the transition and applies the recovery
// ladder: classify missing-field rejections (suspending), retry once with a
// resolver-supplied label, then try configured aliases in order, and
// finally surface the original rejection.
func (e *Engine) transitionWithFallback(ctx context.Context, issue *jira.Issue, target workflow.Stage, opts Options, mode runMode) (string, error) {
	err := e.store.AttemptTransition(ctx, issue.Key, target.Name)
	if err == nil {
		return target.Name, nil
	}

	var rej *jira.RejectionError
	if !errors.As(err, &rej) {
		return "", err
	}

	cls := e.classifier.Classify(rej.Message)
	if cls.Kind == transition.KindMissingFields {
		return "", e.suspend(issue, opts, mode, target.Name, cls.Fields)
	}

	if label, ok := e.resolver.Resolve(target.Name, rej.Message); ok {
		// Exactly one retry with the resolved label; its outcome is final.
		retryErr := e.store.AttemptTransition(ctx, issue.Key, label)
		if retryErr == nil {
			return label, nil
		}
		var retryRej *jira.RejectionError
		if errors.As(retryErr, &retryRej) {
			return "", &RejectedError{IssueKey: issue.Key, Stage: target.Name, Label: label, Message: retryRej.Message}
		}
		return "", retryErr
	}

	for _, alias := range e.aliases[strings.ToUpper(target.Name)] {
		if aliasErr := e.store.AttemptTransition(ctx, issue.Key, alias); aliasErr == nil {
			return alias, nil
		}
	}

	return "", &RejectedError{IssueKey: issue.Key, Stage: target.Name, Label: target.Name, Message: rej.Message}
}

// suspend records the paused operation and returns the error that signals
// the suspension to the caller.
func (e *Engine) suspend(issue *jira.Issue, opts Options, mode runMode, stage string, fields []string) error {
	e.suspended = &suspension{issue: issue, opts: opts, mode: mode, stage: stage, fields: fields}
	return &MissingFieldsError{IssueKey: issue.Key, Stage: stage, Fields: fields}
}

// autoAssign runs the role auto-assigner best-effort; a nil assigner or any
// failure yields the zero result and never affects the transition.
func (e *Engine) autoAssign(ctx context.Context, issue *jira.Issue, stage workflow.Stage) assign.Result {
	if e.assigner == nil {
		return assign.Result{}
	}
	result := e.assigner.AutoAssign(ctx, issue.Key, stage)
	if result.Assigned {
		issue.Assignee = result.Assignee
	}
	return result
}
