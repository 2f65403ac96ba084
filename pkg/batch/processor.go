package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"implantprofile/pkg/channel"
	"implantprofile/pkg/distance"
	"implantprofile/pkg/mask"
	"implantprofile/pkg/profile"
	"implantprofile/pkg/report"
	"implantprofile/pkg/visualization"
)

// Processor runs a batch analysis
type Processor struct {
	params   *Params
	analyzer *profile.Analyzer
	log      zerolog.Logger

	// mu serializes progress reporting
	mu        sync.Mutex
	completed int
}

// NewProcessor creates a processor for the given parameters
func NewProcessor(params *Params) *Processor {
	log := zerolog.Nop()
	if params.Logger != nil {
		log = params.Logger.With().Str("component", "batch").Logger()
	}
	return &Processor{
		params:   params,
		analyzer: profile.NewAnalyzer(params.Profile),
		log:      log,
	}
}

// Validate checks the parameters before any file is touched
func (p *Processor) Validate() error {
	if len(p.params.Channels) == 0 {
		return fmt.Errorf("%w: no channels given", profile.ErrParameterMismatch)
	}
	if len(p.params.Channels) != len(p.params.Offsets) {
		return fmt.Errorf("%w: %d channels but %d normalization constants",
			profile.ErrParameterMismatch, len(p.params.Channels), len(p.params.Offsets))
	}
	if err := report.CheckSheetNames(p.params.Channels); err != nil {
		return fmt.Errorf("%w: %v", profile.ErrParameterMismatch, err)
	}
	if err := p.params.Profile.Validate(); err != nil {
		return err
	}
	switch p.params.DistanceMethod {
	case "", distance.MethodEDT, distance.MethodKDTree, distance.MethodOpenCV:
	default:
		return fmt.Errorf("%w: %w %q", profile.ErrParameterMismatch, distance.ErrUnknownMethod, p.params.DistanceMethod)
	}
	return nil
}

// Run discovers image sets under Root, profiles each one and writes the
// report. It fails only for invalid parameters, when no image set survives
// discovery, when ctx is cancelled, or when the report cannot be written.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	log := p.log.With().Str("run_id", result.RunID).Logger()

	exts := p.params.Extensions
	if len(exts) == 0 {
		exts = channel.DefaultExtensions
	}

	entries, drops, err := Discover(p.params.Root, p.params.Channels, exts)
	if err != nil {
		return nil, err
	}
	for _, d := range drops {
		p.logDrop(log, d)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w under %s (%d incomplete image sets)", ErrNoCandidatesFound, p.params.Root, len(drops))
	}

	log.Info().
		Int("image_sets", len(entries)).
		Strs("channels", p.params.Channels).
		Ints("normalization", p.params.Offsets).
		Msg("masks found")

	images, failed, err := p.processAll(ctx, log, entries)
	if err != nil {
		return nil, err
	}
	drops = append(drops, failed...)

	sort.SliceStable(images, func(i, j int) bool {
		if images[i].ImageID != images[j].ImageID {
			return images[i].ImageID < images[j].ImageID
		}
		return images[i].MaskPath < images[j].MaskPath
	})
	sort.SliceStable(drops, func(i, j int) bool {
		if drops[i].ImageID != drops[j].ImageID {
			return drops[i].ImageID < drops[j].ImageID
		}
		return drops[i].MaskPath < drops[j].MaskPath
	})
	result.Images = images
	result.Drops = drops
	result.Tables = BuildTables(p.params.Channels, p.params.Profile.Labels(), images)

	path, err := p.writeReport(log, result.Tables)
	if err != nil {
		return nil, err
	}
	result.ReportPath = path

	log.Info().
		Int("processed", len(images)).
		Int("dropped", len(drops)).
		Str("report", path).
		Msg("intensity analysis finished")

	return result, nil
}

// processAll fans entries out over a bounded pool of goroutines. Results
// land in per-entry slots so completion order does not matter.
func (p *Processor) processAll(ctx context.Context, log zerolog.Logger, entries []Entry) ([]ImageResult, []Drop, error) {
	workers := p.params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*ImageResult, len(entries))
	failures := make([]*Drop, len(entries))

	p.mu.Lock()
	p.completed = 0
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := p.processEntry(log, entry)
			if err != nil {
				d := Drop{ImageID: entry.ImageID, MaskPath: entry.MaskPath, Reason: err}
				failures[i] = &d
				p.logDrop(log, d)
			} else {
				results[i] = res
			}

			p.reportProgress(log, len(entries), entry.ImageID)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var images []ImageResult
	var drops []Drop
	for i := range entries {
		if results[i] != nil {
			images = append(images, *results[i])
		}
		if failures[i] != nil {
			drops = append(drops, *failures[i])
		}
	}
	return images, drops, nil
}

// processEntry runs the full pipeline for one image set
func (p *Processor) processEntry(log zerolog.Logger, entry Entry) (*ImageResult, error) {
	m, err := mask.Load(entry.MaskPath)
	if err != nil {
		return nil, err
	}
	if m.Landmark.Count() == 0 {
		return nil, ErrZeroLandmark
	}

	channels := make([]profile.Channel, len(entry.ChannelPaths))
	for i, path := range entry.ChannelPaths {
		grid, err := channel.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrChannelFileMissing, filepath.Base(path), err)
		}
		if grid.Width != m.Width() || grid.Height != m.Height() {
			return nil, fmt.Errorf("%w: %s is %dx%d, mask is %dx%d", profile.ErrDimensionMismatch,
				filepath.Base(path), grid.Width, grid.Height, m.Width(), m.Height())
		}
		channels[i] = profile.Channel{
			Name:      p.params.Channels[i],
			Offset:    p.params.Offsets[i],
			Intensity: grid,
		}
	}

	start := time.Now()
	field, err := distance.Compute(p.params.DistanceMethod, m.Landmark)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("image_id", entry.ImageID).
		Dur("elapsed", time.Since(start)).
		Msg("distance field computed")

	profiles, err := p.analyzer.Run(field, m.Landmark, m.Exclusions, channels)
	if err != nil {
		return nil, err
	}

	if p.params.Plots {
		plotPath := filepath.Join(filepath.Dir(entry.MaskPath), entry.ImageID+visualization.PlotSuffix)
		title := entry.ImageID + " intensity plot"
		if err := visualization.SaveProfilePlot(plotPath, title, p.params.Profile.Edges(), profiles); err != nil {
			log.Warn().Err(err).Str("image_id", entry.ImageID).Msg("failed to save intensity plot")
		}
	}

	return &ImageResult{
		ImageID:  entry.ImageID,
		MaskPath: entry.MaskPath,
		Profiles: profiles,
	}, nil
}

// BuildTables arranges the normalized profiles into one table per channel
func BuildTables(channels, labels []string, images []ImageResult) []report.Table {
	tables := make([]report.Table, len(channels))
	for c, name := range channels {
		tables[c] = report.Table{Channel: name, Columns: labels}
		for _, img := range images {
			tables[c].Rows = append(tables[c].Rows, report.Row{
				ID:     img.ImageID,
				Values: img.Profiles[c].Normalized,
			})
		}
	}
	return tables
}

func (p *Processor) writeReport(log zerolog.Logger, tables []report.Table) (string, error) {
	dir := p.params.OutputDir
	if dir == "" {
		dir = p.params.Root
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	now := time.Now
	if p.params.Now != nil {
		now = p.params.Now
	}
	path := filepath.Join(dir, report.FileName(now()))

	if err := report.WriteXLSX(path, tables); err != nil {
		return "", err
	}

	if info, err := os.Stat(path); err == nil {
		log.Debug().Str("size", humanize.Bytes(uint64(info.Size()))).Msg("report written")
	}
	return path, nil
}

func (p *Processor) reportProgress(log zerolog.Logger, total int, imageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	log.Info().
		Str("image_id", imageID).
		Str("progress", fmt.Sprintf("%d/%d", p.completed, total)).
		Msg("image set done")
	if p.params.Progress != nil {
		p.params.Progress(p.completed, total, imageID)
	}
}

func (p *Processor) logDrop(log zerolog.Logger, d Drop) {
	log.Warn().
		Str("image_id", d.ImageID).
		Str("path", d.MaskPath).
		Str("kind", d.Kind()).
		Err(d.Reason).
		Msg("image set dropped")
}
