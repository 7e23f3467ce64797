// Package workflow gates when a proposal may be priced, generated and sent.
//
// The workflow is a set of transition functions over immutable Snapshot
// values. A transition either returns the next snapshot or returns the
// snapshot it was given together with an error; a failed or abandoned
// transition never leaves a half-advanced state behind.
package workflow

import (
	"context"
	"net/mail"

	"go.uber.org/zap"

	"roofquote/core/pricing"
	"roofquote/core/types"
	"roofquote/internal/errors"
	"roofquote/internal/logging"
)

// Renderer turns a priced tier and a scope of work into a proposal document
type Renderer interface {
	RenderProposal(ctx context.Context, tier types.TierPricing, scopeOfWork string) (types.RenderedProposal, error)
}

// Sender delivers a rendered proposal. Resending the same proposal must not
// notify the homeowner twice; that guarantee belongs to the implementation.
type Sender interface {
	SendProposal(ctx context.Context, proposalID, recipient string) error
}

// Recorder persists pricing runs
type Recorder interface {
	SavePricingRun(ctx context.Context, run *types.PricingRun) error
}

// Snapshot is the complete state of one proposal workflow
type Snapshot struct {
	SessionID string              `json:"session_id"`
	State     types.WorkflowState `json:"state"`

	// Input is the active job description, kept across a revise so it can be edited
	Input types.PricingInput `json:"input"`

	// Tiers and Selected are set from Priced onwards
	Tiers    types.TierSet  `json:"tiers"`
	Selected types.TierName `json:"selected,omitempty"`

	// RunID identifies the persisted pricing run, empty without a recorder
	RunID string `json:"run_id,omitempty"`

	// Proposal is set from Generated onwards
	Proposal *types.Proposal `json:"proposal,omitempty"`

	// Recipient is set once Sent
	Recipient string `json:"recipient,omitempty"`
}

// Start returns the initial snapshot of a workflow
func Start(sessionID string) Snapshot {
	return Snapshot{SessionID: sessionID, State: types.StateMeasuring}
}

// SelectedTier returns the currently selected tier pricing
func (s Snapshot) SelectedTier() (types.TierPricing, bool) {
	if s.State == types.StateMeasuring || s.Selected == "" {
		return types.TierPricing{}, false
	}
	return s.Tiers.Get(s.Selected)
}

// Workflow binds the transitions to a calculator and the external collaborators
type Workflow struct {
	calc     *pricing.Calculator
	renderer Renderer
	sender   Sender
	recorder Recorder
	logger   *zap.Logger
}

// Option configures a Workflow
type Option func(*Workflow)

// WithRecorder persists every successful pricing submission
func WithRecorder(r Recorder) Option {
	return func(w *Workflow) {
		w.recorder = r
	}
}

// WithLogger overrides the component logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) {
		w.logger = l
	}
}

// New creates a workflow
func New(calc *pricing.Calculator, renderer Renderer, sender Sender, opts ...Option) (*Workflow, error) {
	if calc == nil || renderer == nil || sender == nil {
		return nil, errors.New(errors.TypeConfig, "workflow needs a calculator, a renderer and a sender")
	}
	w := &Workflow{
		calc:     calc,
		renderer: renderer,
		sender:   sender,
		logger:   logging.Named(logging.ComponentWorkflow),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// SubmitMeasurements prices the job and moves Measuring to Priced. The
// selection defaults to the better tier.
func (w *Workflow) SubmitMeasurements(ctx context.Context, s Snapshot, in types.PricingInput) (Snapshot, error) {
	if err := expect(s, types.StateMeasuring, "submit measurements"); err != nil {
		return s, err
	}

	in, err := w.calc.NewInput(in)
	if err != nil {
		w.logger.Debug("measurements rejected", logging.SessionID(s.SessionID), zap.Error(err))
		return s, err
	}
	tiers, err := w.calc.CalculateTiers(in)
	if err != nil {
		return s, err
	}

	var runID string
	if w.recorder != nil {
		run := &types.PricingRun{SessionID: s.SessionID, Input: in, Tiers: tiers}
		if err := w.call(ctx, s, "pricing store", func(ctx context.Context) error {
			return w.recorder.SavePricingRun(ctx, run)
		}); err != nil {
			return s, err
		}
		runID = run.ID
	}

	next := s
	next.State = types.StatePriced
	next.Input = in
	next.Tiers = tiers
	next.Selected = types.TierBetter
	next.RunID = runID
	next.Proposal = nil
	return w.advanced(s, next), nil
}

// SelectTier changes the selected tier without recalculating
func (w *Workflow) SelectTier(s Snapshot, tier types.TierName) (Snapshot, error) {
	if err := expect(s, types.StatePriced, "select tier"); err != nil {
		return s, err
	}
	if !tier.IsValid() {
		return s, errors.InvalidInput("unknown tier %q", tier)
	}
	next := s
	next.Selected = tier
	w.logger.Debug("tier selected", logging.SessionID(s.SessionID), logging.Tier(tier))
	return next, nil
}

// GenerateProposal renders the selected tier and moves Priced to Generated
func (w *Workflow) GenerateProposal(ctx context.Context, s Snapshot, scopeOfWork string) (Snapshot, error) {
	if err := expect(s, types.StatePriced, "generate proposal"); err != nil {
		return s, err
	}
	tier, ok := s.SelectedTier()
	if !ok {
		return s, errors.InvalidInput("no tier selected")
	}

	var rendered types.RenderedProposal
	err := w.call(ctx, s, "proposal renderer", func(ctx context.Context) error {
		var err error
		rendered, err = w.renderer.RenderProposal(ctx, tier, scopeOfWork)
		if err == nil && rendered.ID == "" {
			err = errors.New(errors.TypeExternal, "renderer returned an empty proposal id")
		}
		return err
	})
	if err != nil {
		return s, err
	}

	next := s
	next.State = types.StateGenerated
	next.Proposal = &types.Proposal{
		ID:          rendered.ID,
		Tier:        tier.Tier,
		ScopeOfWork: scopeOfWork,
		HTMLPreview: rendered.HTMLPreview,
	}
	return w.advanced(s, next), nil
}

// SendProposal delivers the generated proposal and moves Generated to Sent. A
// failed send leaves the workflow in Generated so it can be retried.
func (w *Workflow) SendProposal(ctx context.Context, s Snapshot, recipient string) (Snapshot, error) {
	if err := expect(s, types.StateGenerated, "send proposal"); err != nil {
		return s, err
	}
	addr, err := mail.ParseAddress(recipient)
	if err != nil {
		return s, errors.InvalidInput("invalid recipient address %q", recipient)
	}
	if s.Proposal == nil {
		return s, errors.New(errors.TypeInternal, "generated state without a proposal")
	}

	if err := w.call(ctx, s, "proposal sender", func(ctx context.Context) error {
		return w.sender.SendProposal(ctx, s.Proposal.ID, addr.Address)
	}); err != nil {
		return s, err
	}

	next := s
	next.State = types.StateSent
	next.Recipient = addr.Address
	return w.advanced(s, next), nil
}

// ReviseMeasurements moves Priced back to Measuring and discards the tiers.
// The input is kept so it can be edited and resubmitted.
func (w *Workflow) ReviseMeasurements(s Snapshot) (Snapshot, error) {
	if err := expect(s, types.StatePriced, "revise measurements"); err != nil {
		return s, err
	}
	next := s
	next.State = types.StateMeasuring
	next.Tiers = types.TierSet{}
	next.Selected = ""
	next.RunID = ""
	return w.advanced(s, next), nil
}

// ReviseTier moves Generated back to Priced and discards the proposal
func (w *Workflow) ReviseTier(s Snapshot) (Snapshot, error) {
	if err := expect(s, types.StateGenerated, "revise tier"); err != nil {
		return s, err
	}
	next := s
	next.State = types.StatePriced
	next.Proposal = nil
	return w.advanced(s, next), nil
}

// Abandon discards the workflow without any external side effect
func (w *Workflow) Abandon(s Snapshot) (Snapshot, error) {
	if s.State.IsTerminal() {
		return s, errors.InvalidTransition(string(s.State), "abandon")
	}
	next := s
	next.State = types.StateAbandoned
	return w.advanced(s, next), nil
}

func expect(s Snapshot, want types.WorkflowState, action string) error {
	if s.State != want {
		return errors.InvalidTransition(string(s.State), action)
	}
	return nil
}

// call runs one collaborator request. A context that is already done, or
// that ends while the request is in flight, counts as a failure even when the
// collaborator reports success.
func (w *Workflow) call(ctx context.Context, s Snapshot, collaborator string, fn func(context.Context) error) error {
	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}
	w.logger.Warn("collaborator failed",
		logging.SessionID(s.SessionID),
		zap.String("state", string(s.State)),
		zap.String("collaborator", collaborator),
		zap.Error(err))
	return errors.External(collaborator, err)
}

func (w *Workflow) advanced(from, to Snapshot) Snapshot {
	fields := []zap.Field{logging.SessionID(from.SessionID), logging.Transition(from.State, to.State)}
	if to.RunID != "" && to.RunID != from.RunID {
		fields = append(fields, logging.RunID(to.RunID))
	}
	w.logger.Debug("workflow transition", fields...)
	return to
}
