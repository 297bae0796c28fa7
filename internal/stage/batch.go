package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/hexpipe/internal/confirm"
	"github.com/harrison/hexpipe/internal/display"
	"github.com/harrison/hexpipe/internal/filelock"
	"github.com/harrison/hexpipe/internal/ledger"
	"github.com/harrison/hexpipe/internal/logger"
	"github.com/harrison/hexpipe/internal/models"
	"github.com/harrison/hexpipe/internal/paths"
	"github.com/harrison/hexpipe/internal/process"
)

// OverwriteQuestion is asked when a folder already holds stage outputs.
const OverwriteQuestion = "\t-> Are you sure you want to overwrite these files ?"

// Logger is the diagnostics sink of a batch run.
type Logger interface {
	LogInfo(message string)
	LogDebug(message string)
	LogRunStart(run models.Run, folders int)
	LogSummary(summary *models.RunSummary)
}

// Recorder stores runs and their folder outcomes.
type Recorder interface {
	StartRun(ctx context.Context, run models.Run) error
	RecordOutcome(ctx context.Context, runID string, outcome models.FolderOutcome) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time) error
}

// Batch runs one stage over a set of folders.
type Batch struct {
	Def  *Definition
	Root string
	// Reference is the collection reference the folders were resolved from;
	// it names the ledgers.
	Reference string
	Tools     map[string]string
	// Params are the raw parameter values; defaults are filled in by Run.
	Params map[string]string
	// OutputTemplate overrides Def.Output. Ignored for in-place stages.
	OutputTemplate string
	Comment        string
	NoLedger       bool
	Policy         confirm.Policy

	Runner    process.Runner
	Confirmer confirm.Confirmer
	Out       io.Writer
	Logger    Logger
	History   Recorder // optional

	Now   func() time.Time
	NewID func() string
}

// info is the content of info.json.
type info struct {
	GeneratedBy string            `json:"generated_by"`
	Comments    string            `json:"comments"`
	Date        string            `json:"date"`
	RunID       string            `json:"run_id"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// runState is what the per-folder loop shares.
type runState struct {
	run        models.Run
	outputName string
	params     map[string]string
	policy     confirm.Policy
	ledger     *ledger.Ledger
	status     *display.StatusPrinter
}

func (b *Batch) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Batch) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.New().String()
}

// Run processes folders in order, one at a time.
//
// Per-folder failures (missing inputs, failing steps, refused overwrites) are
// outcomes in the returned summary. The error is reserved for failures that
// abort the whole run: ledger, log or history I/O, cancellation and an
// unanswered confirmation prompt. The summary holds the outcomes gathered so
// far in both cases.
func (b *Batch) Run(ctx context.Context, folders []string) (*models.RunSummary, error) {
	if b.Logger == nil {
		b.Logger = logger.NewNoOpLogger()
	}
	if b.Out == nil {
		b.Out = io.Discard
	}
	root := paths.Normalize(b.Root)
	startedAt := b.now()

	params, err := b.Def.ResolveParams(b.Params)
	if err != nil {
		return nil, err
	}

	st := &runState{params: params, policy: b.Policy}
	if !b.Def.InPlace() {
		template := b.OutputTemplate
		if template == "" {
			template = b.Def.Output
		}
		if st.outputName, err = b.Def.OutputName(template, params, startedAt); err != nil {
			return nil, err
		}
	}

	st.ledger, err = ledger.New(LedgerBase(b.Def.Name, b.Reference, startedAt), root, !b.NoLedger)
	if err != nil {
		return nil, err
	}
	defer st.ledger.Close()
	st.ledger.SetHeader(b.Def.Name, startedAt.Format(models.PrettyTimeFormat), b.Comment)

	st.run = models.Run{
		ID:          b.newID(),
		Stage:       b.Def.Name,
		Reference:   b.Reference,
		Root:        root,
		Comment:     b.Comment,
		Ledger:      st.ledger.SuccessPath(),
		ErrorLedger: st.ledger.ErrorPath(),
		StartedAt:   startedAt,
	}
	st.status = display.NewStatusPrinter(b.Out, root)

	if b.History != nil {
		if err := b.History.StartRun(ctx, st.run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}
	b.Logger.LogRunStart(st.run, len(folders))

	summary := &models.RunSummary{Run: st.run}
	for _, folder := range folders {
		outcome, err := b.processFolder(ctx, st, paths.Normalize(folder))
		if err != nil {
			b.finish(ctx, st, summary)
			return summary, err
		}
		summary.Outcomes = append(summary.Outcomes, *outcome)

		if b.History != nil {
			if err := b.History.RecordOutcome(ctx, st.run.ID, *outcome); err != nil {
				b.finish(ctx, st, summary)
				return summary, fmt.Errorf("failed to record outcome of %s: %w", folder, err)
			}
		}
	}

	if err := b.finish(ctx, st, summary); err != nil {
		return summary, fmt.Errorf("failed to record run: %w", err)
	}
	b.Logger.LogSummary(summary)
	return summary, nil
}

// finish stamps the end of the run in the summary and the history.
func (b *Batch) finish(ctx context.Context, st *runState, summary *models.RunSummary) error {
	st.run.FinishedAt = b.now()
	summary.Run = st.run
	if b.History == nil {
		return nil
	}
	// the run may have been interrupted by ctx itself
	return b.History.FinishRun(context.WithoutCancel(ctx), st.run.ID, st.run.FinishedAt)
}

func (b *Batch) processFolder(ctx context.Context, st *runState, folder string) (*models.FolderOutcome, error) {
	started := time.Now()
	outcome := &models.FolderOutcome{Folder: folder, OutputFolder: folder}
	if st.outputName != "" {
		outcome.OutputFolder = filepath.Join(folder, st.outputName)
	}
	sc := &StepContext{Input: folder, Output: outcome.OutputFolder, Tools: b.Tools, Params: st.params}

	done := func(status models.Status) (*models.FolderOutcome, error) {
		outcome.Status = status
		outcome.Duration = time.Since(started)
		outcome.FinishedAt = b.now()
		st.status.End(status)
		return outcome, nil
	}
	failed := func(status models.Status, reason string) (*models.FolderOutcome, error) {
		outcome.Reason = reason
		if err := st.ledger.AddErrorComment(reason); err != nil {
			st.status.Newline()
			return nil, err
		}
		if err := st.ledger.RecordError(folder); err != nil {
			st.status.Newline()
			return nil, err
		}
		return done(status)
	}

	st.status.Begin(folder)

	inputs := make([]string, len(b.Def.Inputs))
	for i, name := range b.Def.Inputs {
		inputs[i] = sc.In(name)
	}
	if missing := paths.MissingAmong(inputs); len(missing) > 0 {
		b.Logger.LogDebug(fmt.Sprintf("%s: missing %s", st.status.Rel(folder), relList(st.status, missing)))
		return failed(models.StatusMissingFiles, "missing input files")
	}

	outputs := make([]string, len(b.Def.Outputs))
	for i, name := range b.Def.Outputs {
		outputs[i] = sc.Out(name)
	}
	if existing := paths.ExistingAmong(outputs); len(existing) > 0 {
		asking := st.policy == confirm.Ask
		if asking {
			rels := make([]string, len(existing))
			for i, f := range existing {
				rels[i] = st.status.Rel(f)
			}
			display.OverwriteWarning(rels).Display(b.Out, st.status.Color())
		}
		overwrite, err := b.Confirmer.Confirm(OverwriteQuestion, &st.policy)
		if err != nil {
			return nil, err
		}
		if asking {
			st.status.Resume()
		}
		if !overwrite {
			return done(models.StatusCanceled)
		}
	}

	if err := os.MkdirAll(outcome.OutputFolder, 0755); err != nil {
		st.status.Newline()
		return nil, fmt.Errorf("failed to create %s: %w", outcome.OutputFolder, err)
	}
	logPath := sc.Out(LogFileName)
	if err := logger.WriteBanner(logPath, b.Def.Name, time.Now()); err != nil {
		st.status.Newline()
		return nil, err
	}

	steps, err := b.Def.Steps(sc)
	if err != nil {
		st.status.Newline()
		return nil, err
	}
	for _, s := range steps {
		res, err := b.Runner.Run(ctx, process.Invocation{
			Name:       s.Name,
			Executable: s.Executable,
			Args:       s.Args,
			Dir:        outcome.OutputFolder,
			LogPath:    logPath,
		})
		if err != nil {
			st.status.Newline()
			return nil, err
		}
		if !res.Success() {
			outcome.Step = s.Name
			outcome.ExitCode = res.ExitCode
			return failed(models.StatusError, fmt.Sprintf("error during %s call", s.Name))
		}
	}

	for _, r := range b.Def.Renames {
		if err := os.Rename(sc.Out(r.From), sc.Out(r.To)); err != nil {
			outcome.Step = "rename"
			b.Logger.LogDebug(fmt.Sprintf("%s: %v", st.status.Rel(folder), err))
			return failed(models.StatusError, fmt.Sprintf("error during renaming of %s", r.From))
		}
	}

	if err := st.ledger.RecordSuccess(outcome.OutputFolder); err != nil {
		st.status.Newline()
		return nil, err
	}
	if !b.Def.InPlace() {
		if err := b.writeInfo(sc.Out(InfoFileName), st, started); err != nil {
			st.status.Newline()
			return nil, err
		}
	}
	return done(models.StatusDone)
}

func (b *Batch) writeInfo(path string, st *runState, at time.Time) error {
	data, err := json.MarshalIndent(info{
		GeneratedBy: b.Def.Name,
		Comments:    b.Comment,
		Date:        at.Format(models.PrettyTimeFormat),
		RunID:       st.run.ID,
		Parameters:  st.params,
	}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return filelock.AtomicWrite(path, append(data, '\n'))
}

func relList(s *display.StatusPrinter, files []string) string {
	rels := make([]string, len(files))
	for i, f := range files {
		rels[i] = s.Rel(f)
	}
	return strings.Join(rels, ", ")
}

