// Package engine orchestrates the editing loop: it owns the live topology
// document, projects it into graph elements, applies revisioned commands
// from editors and guards against echo reloads of its own file writes.
//
// All mutation goes through Apply, one command at a time. Every accepted
// command bumps the revision; a command carrying a stale base revision is
// rejected with a revision-conflict before anything is touched. External
// file changes come in through HandleFileChange, which consults the
// self-write token set so the engine's own saves never trigger a reload.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/topolab/pkg/annotations"
	"github.com/matzehuels/topolab/pkg/document"
	"github.com/matzehuels/topolab/pkg/errors"
	"github.com/matzehuels/topolab/pkg/graphview"
	"github.com/matzehuels/topolab/pkg/observability"
	"github.com/matzehuels/topolab/pkg/reconcile"
	"github.com/matzehuels/topolab/pkg/runtime"
	"github.com/matzehuels/topolab/pkg/topology"
)

// ProtocolVersion is the command protocol the API layer speaks. Clients
// sending any other version are rejected before their command applies.
const ProtocolVersion = 1

// Command types accepted by Apply.
const (
	CmdSaveTopology    = "save-topology"
	CmdPatchSettings   = "patch-settings"
	CmdSaveAnnotations = "save-annotations"
)

// selfWriteTTL bounds how long a registered write token stays valid. A
// watcher that never reports back must not leak tokens forever.
const selfWriteTTL = 3 * time.Second

// Command is one revisioned mutation request. Exactly one payload field is
// set, matching Type.
type Command struct {
	Type        string              `json:"type"`
	Elements    *graphview.Elements `json:"elements,omitempty"`
	Settings    *reconcile.Settings `json:"settings,omitempty"`
	Annotations *annotations.Set    `json:"annotations,omitempty"`
}

// Result reports an accepted command.
type Result struct {
	Revision uint64 `json:"revision"`
	Checksum string `json:"checksum"`
}

// Snapshot is the engine's full observable state at one revision.
type Snapshot struct {
	Name         string             `json:"name"`
	Revision     uint64             `json:"revision"`
	Checksum     string             `json:"checksum"`
	LayoutPreset bool               `json:"layoutPreset"`
	Elements     graphview.Elements `json:"elements"`
	Annotations  *annotations.Set   `json:"annotations"`
}

// Config wires an Engine.
type Config struct {
	FS     document.FS
	Path   string
	Store  annotations.Store
	States runtime.Source
	Logger *log.Logger
}

// Engine owns one topology document and serializes every mutation on it.
type Engine struct {
	fs      document.FS
	path    string
	store   annotations.Store
	states  runtime.Source
	builder *graphview.Builder
	rec     *reconcile.Reconciler
	logger  *log.Logger

	mu         sync.Mutex
	doc        *document.Document
	topo       *topology.Topology
	ann        *annotations.Set
	elements   graphview.Elements
	revision   uint64
	checksum   string
	selfWrites map[string]time.Time

	subMu sync.Mutex
	subs  map[chan uint64]struct{}
}

// New creates an Engine. Load must be called before anything else.
func New(cfg Config) *Engine {
	if cfg.FS == nil {
		cfg.FS = document.OSFS{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Engine{
		fs:         cfg.FS,
		path:       cfg.Path,
		store:      cfg.Store,
		states:     cfg.States,
		builder:    graphview.NewBuilder(cfg.Logger),
		rec:        reconcile.NewReconciler(cfg.Logger),
		logger:     cfg.Logger,
		selfWrites: map[string]time.Time{},
		subs:       map[chan uint64]struct{}{},
	}
}

// Load reads the topology file and the annotation store and builds the
// first element projection. The first revision is 1.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := document.Load(e.fs, e.path)
	if err != nil {
		return err
	}
	topo, err := topology.ParseDocument(doc)
	if err != nil {
		return err
	}

	ann := &annotations.Set{}
	if e.store != nil {
		if ann, err = e.store.Load(ctx); err != nil {
			return err
		}
	}

	e.doc = doc
	e.topo = topo
	e.ann = ann
	if err := e.project(ctx); err != nil {
		return err
	}
	e.revision = 1
	e.logger.Info("topology loaded", "path", e.path, "nodes", len(topo.Nodes), "links", len(topo.Links))
	return nil
}

// Refresh rebuilds the element projection against current container state.
// Live state is not revisioned, so the revision does not move.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return errors.New(errors.CodeMissingDocument, "engine not loaded")
	}
	return e.project(ctx)
}

// Snapshot returns the engine state at the current revision.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Name:         e.topoName(),
		Revision:     e.revision,
		Checksum:     e.checksum,
		LayoutPreset: topology.LayoutPreset(e.topo, e.ann.Positions()),
		Elements:     e.elements,
		Annotations:  e.ann,
	}
}

// Apply runs one command as a transaction. baseRevision must match the
// current revision or the command is rejected untouched.
func (e *Engine) Apply(ctx context.Context, cmd Command, baseRevision uint64) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return Result{}, errors.New(errors.CodeMissingDocument, "engine not loaded")
	}
	if baseRevision != e.revision {
		observability.Engine().OnCommandRejected(ctx, cmd.Type, string(errors.CodeRevisionConflict))
		return Result{}, errors.New(errors.CodeRevisionConflict,
			"base revision %d does not match current revision %d", baseRevision, e.revision)
	}
	start := time.Now()

	switch cmd.Type {
	case CmdSaveTopology:
		if cmd.Elements == nil {
			return Result{}, errors.New(errors.CodeInvalidCommand, "save-topology requires elements")
		}
		if err := e.rec.Reconcile(e.doc, e.topo, cmd.Elements); err != nil {
			return Result{}, err
		}
		if err := e.saveDocument(ctx); err != nil {
			return Result{}, err
		}

	case CmdPatchSettings:
		if cmd.Settings == nil {
			return Result{}, errors.New(errors.CodeInvalidCommand, "patch-settings requires settings")
		}
		if err := e.rec.PatchSettings(e.doc, *cmd.Settings); err != nil {
			return Result{}, err
		}
		if err := e.saveDocument(ctx); err != nil {
			return Result{}, err
		}

	case CmdSaveAnnotations:
		if cmd.Annotations == nil {
			return Result{}, errors.New(errors.CodeInvalidCommand, "save-annotations requires annotations")
		}
		cmd.Annotations.Prune(e.topo)
		if e.store != nil {
			if err := e.store.Save(ctx, cmd.Annotations); err != nil {
				return Result{}, err
			}
		}
		e.ann = cmd.Annotations
		if err := e.project(ctx); err != nil {
			return Result{}, err
		}

	default:
		return Result{}, errors.New(errors.CodeInvalidCommand, "unknown command type %q", cmd.Type)
	}

	e.revision++
	e.logger.Info("command applied", "type", cmd.Type, "revision", e.revision)
	observability.Engine().OnCommandApplied(ctx, cmd.Type, e.revision, time.Since(start))
	e.notify()
	return Result{Revision: e.revision, Checksum: e.checksum}, nil
}

// HandleFileChange is the hook for an external file watcher. Changes the
// engine wrote itself consume a pending token and are ignored; genuine
// external edits reload the document and bump the revision. The return
// reports whether a reload happened.
func (e *Engine) HandleFileChange(ctx context.Context) (bool, error) {
	if e.consumeSelfWrite() {
		e.logger.Debug("skipping reload of own write", "path", e.path)
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := document.Load(e.fs, e.path)
	if err != nil {
		return false, err
	}
	topo, err := topology.ParseDocument(doc)
	if err != nil {
		return false, err
	}

	e.doc = doc
	e.topo = topo
	if err := e.project(ctx); err != nil {
		return false, err
	}
	e.revision++
	e.logger.Info("external change reloaded", "path", e.path, "revision", e.revision)
	observability.Engine().OnExternalReload(ctx, e.path)
	e.notify()
	return true, nil
}

// saveDocument writes the document back and refreshes the derived state.
// The self-write token is registered before the write so the watcher event
// that follows always finds it.
func (e *Engine) saveDocument(ctx context.Context) error {
	data, err := e.doc.Bytes()
	if err != nil {
		return err
	}
	tok := e.registerSelfWrite()
	if err := e.fs.WriteFile(e.path, data); err != nil {
		e.dropSelfWrite(tok)
		return errors.Wrap(errors.CodeInternal, err, "write topology file %s", e.path)
	}
	observability.Engine().OnDocumentSaved(ctx, e.path, len(data))

	topo, err := topology.ParseDocument(e.doc)
	if err != nil {
		return err
	}
	e.topo = topo
	if e.ann != nil {
		e.ann.Prune(topo)
	}
	return e.project(ctx)
}

// project rebuilds elements and checksum from the current document state.
func (e *Engine) project(ctx context.Context) error {
	var states runtime.StateMap
	if e.states != nil {
		var err error
		if states, err = e.states.States(ctx); err != nil {
			// Live state is best-effort; the document view must survive a
			// dead runtime.
			e.logger.Warn("container state unavailable", "err", err)
		}
	}
	e.elements = e.builder.Build(e.topo, states, e.ann.Positions())

	sum, err := e.doc.Checksum()
	if err != nil {
		return err
	}
	e.checksum = sum
	return nil
}

func (e *Engine) topoName() string {
	if e.topo == nil {
		return ""
	}
	return e.topo.Name
}

// Subscribe registers a listener for accepted revisions. The returned
// cancel func must be called to release the channel. Slow listeners miss
// intermediate revisions instead of blocking the engine.
func (e *Engine) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 8)
	e.subMu.Lock()
	e.subs[ch] = struct{}{}
	e.subMu.Unlock()

	cancel := func() {
		e.subMu.Lock()
		delete(e.subs, ch)
		e.subMu.Unlock()
	}
	return ch, cancel
}

func (e *Engine) notify() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- e.revision:
		default:
		}
	}
}

// registerSelfWrite records a token for the write about to happen.
func (e *Engine) registerSelfWrite() string {
	tok := uuid.NewString()
	e.selfWrites[tok] = time.Now().Add(selfWriteTTL)
	return tok
}

func (e *Engine) dropSelfWrite(tok string) {
	delete(e.selfWrites, tok)
}

// consumeSelfWrite takes one pending, unexpired token. Expired tokens are
// pruned as a side effect.
func (e *Engine) consumeSelfWrite() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	for tok, deadline := range e.selfWrites {
		if now.After(deadline) {
			delete(e.selfWrites, tok)
			continue
		}
		delete(e.selfWrites, tok)
		return true
	}
	return false
}

// IsSelfWrite reports whether an unexpired write token is pending, without
// consuming it.
func (e *Engine) IsSelfWrite() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	for _, deadline := range e.selfWrites {
		if now.Before(deadline) {
			return true
		}
	}
	return false
}
