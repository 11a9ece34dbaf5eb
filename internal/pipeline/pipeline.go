// =============================================================================
// SEPA Member Collection Exporter - Extraction and Export Pipeline
// =============================================================================
//
// This module wires the stages together: query the member table, map the
// header, build member records, group them into payment batches and assemble
// the direct debit document. The commands in cmd/ drive the pipeline and only
// render its results.
//
// PIPELINE STAGES:
//   source -> schema mapper -> record builder -> filters -> grouper -> assembler
//
// Every stage reports its own failures; the pipeline adds which stage broke
// and otherwise passes errors through unwrapped-able (%w).
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vereinskasse/sepa-exporter/internal/config"
	"github.com/vereinskasse/sepa-exporter/internal/generator"
	"github.com/vereinskasse/sepa-exporter/internal/people"
	"github.com/vereinskasse/sepa-exporter/internal/schema"
	"github.com/vereinskasse/sepa-exporter/internal/sepa"
	"github.com/vereinskasse/sepa-exporter/internal/source"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// ExportResult is the outcome of one collection run.
type ExportResult struct {
	// Document is the assembled pain.008.003.02 file content.
	Document []byte

	// Grouping holds the payment groups and the exclusion report.
	Grouping sepa.Grouping

	// Warnings lists rows that were skipped or repaired during extraction.
	Warnings []generator.RowWarning

	// Stats contains run statistics for the operator summary.
	Stats Stats
}

// AddressResult is the outcome of one serial letter run.
type AddressResult struct {
	// Data is the semicolon-separated address data, header included.
	Data string

	// Warnings lists rows that were skipped or repaired during extraction.
	Warnings []generator.RowWarning

	// Stats contains run statistics for the operator summary.
	Stats Stats
}

// Stats contains statistics about a pipeline run.
type Stats struct {
	// RowsRead is the number of data rows delivered by the source.
	RowsRead int

	// MembersBuilt is the number of members extracted from those rows.
	MembersBuilt int

	// MembersCollected is the number of direct debit transactions emitted.
	MembersCollected int

	// MembersExcluded is the number of members in the exclusion report.
	MembersExcluded int

	// Elapsed is the total run time.
	Elapsed time.Duration
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline runs extractions against one source under one profile.
type Pipeline struct {
	profile *config.Profile
	src     source.Source
	logger  *slog.Logger
}

// New creates a pipeline over an opened source.
func New(profile *config.Profile, src source.Source, logger *slog.Logger) *Pipeline {
	return &Pipeline{profile: profile, src: src, logger: logger}
}

// OpenSource opens the source adapter the profile selects.
func OpenSource(ctx context.Context, profile *config.Profile) (source.Source, error) {
	section := profile.Source
	switch section.Driver {
	case "postgres":
		return source.NewPostgresSource(ctx, section.DSN)
	case "csv":
		paths := map[string]string{
			schema.MemberTable.Name:   section.MemberFile,
			schema.NicknameTable.Name: section.NicknameFile,
		}
		// An unset delimiter (profiles built in code bypass the loader's
		// defaults) passes 0 and picks up NewCSVSource's ';' default.
		var delimiter rune
		if section.Delimiter != "" {
			delimiter = []rune(section.Delimiter)[0]
		}
		return source.NewCSVSource(paths, delimiter), nil
	case "xlsx":
		return source.NewXLSXSource(section.Workbook)
	default:
		return nil, fmt.Errorf("unknown source driver %q", section.Driver)
	}
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractMembers runs the extraction stages: query, map, build.
func (p *Pipeline) ExtractMembers(ctx context.Context) ([]people.Member, []generator.RowWarning, int, error) {
	set, err := p.src.Query(ctx, schema.MemberTable)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("member query failed: %w", err)
	}
	p.logger.Debug("member table read", "source", set.Source, "rows", len(set.Rows))

	mapping, err := schema.MapHeader(schema.MemberTable, set.Header)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("member header does not match the expected scheme: %w", err)
	}

	members, warnings, err := generator.BuildMembers(mapping, set.Rows, p.profile.BuildOptions())
	if err != nil {
		return nil, nil, 0, fmt.Errorf("member extraction failed: %w", err)
	}

	for _, warning := range warnings {
		p.logger.Warn("row skipped or repaired", "source", set.Source, "detail", warning.String())
	}

	return members, warnings, len(set.Rows), nil
}

// filterActive drops inactive members when the profile demands it. Members
// without an activity flag always pass; older table layouts do not carry the
// column.
func (p *Pipeline) filterActive(members []people.Member) []people.Member {
	if !p.profile.Collection.ActiveOnly {
		return members
	}
	filtered := members[:0:0]
	for _, member := range members {
		if member.Active == nil || *member.Active {
			filtered = append(filtered, member)
		}
	}
	return filtered
}

// =============================================================================
// EXPORT RUN
// =============================================================================

// RunExport executes a full collection run and assembles the direct debit
// document.
func (p *Pipeline) RunExport(ctx context.Context) (ExportResult, error) {
	start := time.Now()

	members, warnings, rows, err := p.ExtractMembers(ctx)
	if err != nil {
		return ExportResult{}, err
	}
	members = p.filterActive(members)

	originator, err := p.profile.ToOriginator()
	if err != nil {
		return ExportResult{}, err
	}

	grouping, err := sepa.GroupMembers(members, originator.PmtInfID)
	if err != nil {
		return ExportResult{}, fmt.Errorf("grouping failed: %w", err)
	}
	for _, exclusion := range grouping.Excluded {
		p.logger.Info("member excluded from collection", "member", exclusion.Member.String(), "reason", string(exclusion.Reason))
	}

	options := sepa.DefaultAssembleOptions()
	options.WithBOM = *p.profile.Output.WithBOM
	document, err := sepa.AssembleWithOptions(originator, grouping, p.profile.SequenceType(), options)
	if err != nil {
		return ExportResult{}, fmt.Errorf("document assembly failed: %w", err)
	}

	result := ExportResult{
		Document: document,
		Grouping: grouping,
		Warnings: warnings,
		Stats: Stats{
			RowsRead:         rows,
			MembersBuilt:     len(members),
			MembersCollected: grouping.TransactionCount(),
			MembersExcluded:  len(grouping.Excluded),
			Elapsed:          time.Since(start),
		},
	}

	p.logger.Info("collection document assembled",
		"groups", len(grouping.Groups),
		"transactions", result.Stats.MembersCollected,
		"excluded", result.Stats.MembersExcluded,
		"control_sum", grouping.ControlSum().String(),
	)

	return result, nil
}

// =============================================================================
// ADDRESS RUN
// =============================================================================

// RunAddresses executes a serial letter run: extract members, read nicknames
// and render the address data.
func (p *Pipeline) RunAddresses(ctx context.Context) (AddressResult, error) {
	start := time.Now()

	members, warnings, rows, err := p.ExtractMembers(ctx)
	if err != nil {
		return AddressResult{}, err
	}
	members = p.filterActive(members)

	nicknames, err := p.loadNicknames(ctx)
	if err != nil {
		return AddressResult{}, err
	}

	data := generator.GenerateAddresses(members, nicknames)

	return AddressResult{
		Data:     data,
		Warnings: warnings,
		Stats: Stats{
			RowsRead:     rows,
			MembersBuilt: len(members),
			Elapsed:      time.Since(start),
		},
	}, nil
}

// loadNicknames reads the nickname table. A source without one is fine; the
// letters fall back to prenames.
func (p *Pipeline) loadNicknames(ctx context.Context) (generator.Nicknames, error) {
	set, err := p.src.Query(ctx, schema.NicknameTable)
	if errors.Is(err, source.ErrTableUnavailable) {
		p.logger.Debug("no nickname table, using prenames")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("nickname query failed: %w", err)
	}

	mapping, err := schema.MapHeader(schema.NicknameTable, set.Header)
	if err != nil {
		return nil, fmt.Errorf("nickname header does not match the expected scheme: %w", err)
	}
	return generator.BuildNicknames(mapping, set.Rows), nil
}
