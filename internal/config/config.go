// =============================================================================
// SEPA Member Collection Exporter - Configuration Module
// =============================================================================
//
// This module loads and validates the profile configuration. A profile is one
// YAML file describing everything a collection run needs: the club's SEPA
// identity, the data source, contribution handling and output settings.
// Clubs with several sections keep one profile file per section.
//
// The profile is validated on load: identifier checksums, date formats and
// enum values are checked before any database connection is opened, so a
// typo in the creditor id fails fast instead of after a full extraction.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vereinskasse/sepa-exporter/internal/generator"
	"github.com/vereinskasse/sepa-exporter/internal/money"
	"github.com/vereinskasse/sepa-exporter/internal/people"
	"github.com/vereinskasse/sepa-exporter/internal/sepa"
)

// profileDateLayout is the date format of the profile file.
const profileDateLayout = "2006-01-02"

// =============================================================================
// PROFILE STRUCTURE
// =============================================================================

// Profile holds the complete configuration of one collection run.
type Profile struct {
	// Originator is the club's SEPA identity.
	Originator OriginatorConfig `yaml:"originator"`

	// Source selects where member data comes from.
	Source SourceConfig `yaml:"source"`

	// Collection controls contribution resolution and grouping.
	Collection CollectionConfig `yaml:"collection"`

	// Output controls where and how generated files are written.
	Output OutputConfig `yaml:"output"`

	// Logging controls the application log.
	Logging LoggingConfig `yaml:"logging"`
}

// OriginatorConfig is the YAML form of the club's SEPA identity.
type OriginatorConfig struct {
	// Creator is the name of the party creating the document (InitgPty).
	Creator string `yaml:"creator"`

	// Creditor is the name of the party collecting the money (Cdtr).
	Creditor string `yaml:"creditor"`

	// IBAN is the club's account the contributions are collected to.
	IBAN string `yaml:"iban"`

	// BIC of the club's bank.
	BIC string `yaml:"bic"`

	// CreditorID is the SEPA creditor identifier issued by the Bundesbank.
	CreditorID string `yaml:"creditor_id"`

	// Purpose is the remittance text printed on every member's statement.
	Purpose string `yaml:"purpose"`

	// MsgID identifies the document. Unique for 15 days.
	MsgID string `yaml:"msg_id"`

	// PmtInfID is the base payment information id. Unique for 3 months.
	PmtInfID string `yaml:"pmt_inf_id"`

	// ExecutionDate is the requested collection date, "YYYY-MM-DD".
	ExecutionDate string `yaml:"execution_date"`
}

// SourceConfig selects and parameterizes the member data source.
type SourceConfig struct {
	// Driver selects the adapter: "postgres", "csv" or "xlsx".
	// Default: "postgres"
	Driver string `yaml:"driver"`

	// DSN is the Postgres connection string (postgres driver only).
	DSN string `yaml:"dsn"`

	// MemberFile is the member table export (csv driver only).
	MemberFile string `yaml:"member_file"`

	// NicknameFile is the optional nickname table export (csv driver only).
	NicknameFile string `yaml:"nickname_file"`

	// Workbook is the XLSX file with one sheet per table (xlsx driver only).
	Workbook string `yaml:"workbook"`

	// Delimiter is the CSV field separator (csv driver only).
	// Default: ";"
	Delimiter string `yaml:"delimiter"`
}

// CollectionConfig controls contribution resolution and grouping.
type CollectionConfig struct {
	// DefaultContribution applies to members without their own contribution
	// value, e.g. "25.00". Empty means no default; such members are excluded.
	DefaultContribution string `yaml:"default_contribution"`

	// UseMemberContributions enables per-member amounts from the member
	// table. When false the default applies to everyone.
	// Default: true
	UseMemberContributions *bool `yaml:"use_member_contributions"`

	// DuplicatePolicy decides what happens when two rows share a membership
	// number: "reject", "first-wins" or "last-wins".
	// Default: "reject"
	DuplicatePolicy string `yaml:"duplicate_policy"`

	// SequenceType is the SEPA collection sequence: "FRST", "RCUR", "OOFF"
	// or "FNAL".
	// Default: "RCUR"
	SequenceType string `yaml:"sequence_type"`

	// ActiveOnly restricts the collection to members whose activity flag is
	// set. Members without the flag (older table layouts) always pass.
	// Default: false
	ActiveOnly bool `yaml:"active_only"`
}

// OutputConfig controls where and how generated files are written.
type OutputConfig struct {
	// Dir is the directory generated files are written to.
	// Default: "./output"
	Dir string `yaml:"dir"`

	// NameFormat defines the output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	// Default: "sepa_{timestamp}_{uuid}.xml"
	NameFormat string `yaml:"name_format"`

	// WithBOM prepends a UTF-8 byte order mark to the XML document. Some
	// banking programs refuse files without it.
	// Default: true
	WithBOM *bool `yaml:"with_bom"`
}

// LoggingConfig controls the application log.
type LoggingConfig struct {
	// Level controls verbosity: "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects "text" or "json" output.
	// Default: "text"
	Format string `yaml:"format"`
}

// =============================================================================
// LOADING
// =============================================================================

// LoadProfile reads, defaults and validates a profile file.
//
// PARAMETERS:
//   - path: The path to the profile YAML file.
//
// RETURNS:
//   - The validated profile.
//   - An error if the file cannot be read, parsed or fails validation.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	applyProfileDefaults(&profile)

	if err := validateProfile(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	return &profile, nil
}

// applyProfileDefaults sets default values for any unset profile options.
func applyProfileDefaults(profile *Profile) {
	if profile.Source.Driver == "" {
		profile.Source.Driver = "postgres"
	}
	if profile.Source.Delimiter == "" {
		profile.Source.Delimiter = ";"
	}
	if profile.Collection.UseMemberContributions == nil {
		enabled := true
		profile.Collection.UseMemberContributions = &enabled
	}
	if profile.Collection.DuplicatePolicy == "" {
		profile.Collection.DuplicatePolicy = string(generator.DuplicateReject)
	}
	if profile.Collection.SequenceType == "" {
		profile.Collection.SequenceType = string(sepa.SequenceRecurring)
	}
	if profile.Output.Dir == "" {
		profile.Output.Dir = "./output"
	}
	if profile.Output.NameFormat == "" {
		profile.Output.NameFormat = "sepa_{timestamp}_{uuid}.xml"
	}
	if profile.Output.WithBOM == nil {
		enabled := true
		profile.Output.WithBOM = &enabled
	}
	if profile.Logging.Level == "" {
		profile.Logging.Level = "info"
	}
	if profile.Logging.Format == "" {
		profile.Logging.Format = "text"
	}
}

// validateProfile checks enum values, identifier checksums and formats.
func validateProfile(profile *Profile) error {
	switch profile.Source.Driver {
	case "postgres":
		if profile.Source.DSN == "" {
			return fmt.Errorf("source.dsn is required for the postgres driver")
		}
	case "csv":
		if profile.Source.MemberFile == "" {
			return fmt.Errorf("source.member_file is required for the csv driver")
		}
		if len(profile.Source.Delimiter) != 1 {
			return fmt.Errorf("source.delimiter must be a single character, got %q", profile.Source.Delimiter)
		}
	case "xlsx":
		if profile.Source.Workbook == "" {
			return fmt.Errorf("source.workbook is required for the xlsx driver")
		}
	default:
		return fmt.Errorf("unknown source driver %q, expected postgres, csv or xlsx", profile.Source.Driver)
	}

	if !generator.DuplicatePolicy(profile.Collection.DuplicatePolicy).Valid() {
		return fmt.Errorf("unknown duplicate policy %q", profile.Collection.DuplicatePolicy)
	}
	if !sepa.SequenceType(profile.Collection.SequenceType).Valid() {
		return fmt.Errorf("unknown sequence type %q, expected FRST, RCUR, OOFF or FNAL", profile.Collection.SequenceType)
	}
	if profile.Collection.DefaultContribution != "" {
		amount, err := money.ParseAmount(profile.Collection.DefaultContribution)
		if err != nil {
			return fmt.Errorf("collection.default_contribution: %w", err)
		}
		// A zero or negative uniform amount would exclude (or corrupt) every
		// single member; that is a profile error, not a data condition.
		if !amount.IsPositive() {
			return fmt.Errorf("collection.default_contribution %q must be positive", profile.Collection.DefaultContribution)
		}
	}

	if _, err := profile.ToOriginator(); err != nil {
		return err
	}

	return nil
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// ToOriginator converts the originator section into the domain type, checking
// every identifier on the way.
func (p *Profile) ToOriginator() (people.Originator, error) {
	section := p.Originator

	switch {
	case section.Creator == "":
		return people.Originator{}, fmt.Errorf("originator.creator is required")
	case section.Creditor == "":
		return people.Originator{}, fmt.Errorf("originator.creditor is required")
	case !sepa.IsValidIBAN(section.IBAN):
		return people.Originator{}, fmt.Errorf("originator.iban %q fails the checksum", section.IBAN)
	case !sepa.IsValidBIC(section.BIC):
		return people.Originator{}, fmt.Errorf("originator.bic %q has invalid format", section.BIC)
	case !sepa.IsValidCreditorID(section.CreditorID):
		return people.Originator{}, fmt.Errorf("originator.creditor_id %q fails the checksum", section.CreditorID)
	case section.MsgID == "" || !sepa.IsValidMessageID(section.MsgID):
		return people.Originator{}, fmt.Errorf("originator.msg_id %q is empty, too long or carries forbidden characters", section.MsgID)
	case section.PmtInfID == "" || !sepa.IsValidPmtInfID(section.PmtInfID):
		return people.Originator{}, fmt.Errorf("originator.pmt_inf_id %q is empty, too long or carries forbidden characters", section.PmtInfID)
	}

	executionDate, err := time.Parse(profileDateLayout, section.ExecutionDate)
	if err != nil {
		return people.Originator{}, fmt.Errorf("originator.execution_date %q is not a date (expected YYYY-MM-DD)", section.ExecutionDate)
	}

	return people.Originator{
		Creator:       section.Creator,
		Creditor:      section.Creditor,
		IBAN:          section.IBAN,
		BIC:           section.BIC,
		CreditorID:    section.CreditorID,
		Purpose:       section.Purpose,
		MsgID:         section.MsgID,
		PmtInfID:      section.PmtInfID,
		ExecutionDate: executionDate,
	}, nil
}

// BuildOptions converts the collection section into record builder options.
func (p *Profile) BuildOptions() generator.BuildOptions {
	options := generator.BuildOptions{
		UseMemberContributions: *p.Collection.UseMemberContributions,
		Duplicates:             generator.DuplicatePolicy(p.Collection.DuplicatePolicy),
	}
	if p.Collection.DefaultContribution != "" {
		amount := money.MustParseAmount(p.Collection.DefaultContribution)
		options.DefaultContribution = &amount
	}
	return options
}

// SequenceType returns the configured collection sequence.
func (p *Profile) SequenceType() sepa.SequenceType {
	return sepa.SequenceType(p.Collection.SequenceType)
}
