package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/model"
)

// noViolationsMessage is shown for scans without failing elements.
const noViolationsMessage = "No violations"

// NewCompareCmd creates the compare command.
// This command compares scan results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare scan results with historical data",
		Long: `Compare displays differences between the latest and a previous scan of a page.

This command retrieves historical scan data from the database and shows:
- Failing elements that appeared since the earlier scan
- Failing elements that were fixed
- Changes in the number of affected elements per impact

Every 'a11yscan scan' run records its result unless --no-history is given.

Examples:
  # Compare the latest two scans of a page
  a11yscan compare https://example.com

  # List the scan history of a page
  a11yscan compare --list https://example.com

  # Compare with a specific historical scan by ID
  a11yscan compare --with-scan-id 5 https://example.com

  # Compare with the first scan since a date
  a11yscan compare --since 2025-01-01 https://example.com

  # Output the comparison as JSON
  a11yscan compare --json https://example.com

  # List all scanned pages in the database
  a11yscan compare --list-urls`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List scan history for the specified URL")
	cmd.Flags().BoolP("list-urls", "L", false,
		"List all scanned URLs in the database")
	cmd.Flags().Bool("delete", false,
		"Delete the scan history of the specified URL")

	// Comparison target flags
	cmd.Flags().Int64P("with-scan-id", "i", 0,
		"Compare with a specific scan by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first scan on or after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	// Configuration file (history.dir)
	cmd.Flags().String("config", "",
		"Configuration file path (default: .a11yscan in current or home directory)")

	return cmd
}

// compareOptions holds the compare flags.
type compareOptions struct {
	listURLs   bool
	list       bool
	delete     bool
	withScanID int64
	since      string
	json       bool
	markdown   bool
	configPath string
}

func parseCompareFlags(cmd *cobra.Command) (compareOptions, error) {
	var (
		opts compareOptions
		err  error
	)
	flags := cmd.Flags()
	if opts.listURLs, err = flags.GetBool("list-urls"); err != nil {
		return opts, err
	}
	if opts.list, err = flags.GetBool("list"); err != nil {
		return opts, err
	}
	if opts.delete, err = flags.GetBool("delete"); err != nil {
		return opts, err
	}
	if opts.withScanID, err = flags.GetInt64("with-scan-id"); err != nil {
		return opts, err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return opts, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.configPath, err = flags.GetString("config"); err != nil {
		return opts, err
	}
	if opts.json && opts.markdown {
		return opts, errors.New("--json and --markdown are mutually exclusive")
	}
	if opts.withScanID != 0 && opts.since != "" {
		return opts, errors.New("--with-scan-id and --since are mutually exclusive")
	}
	return opts, nil
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseCompareFlags(cmd)
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var url string
	if !opts.listURLs {
		if len(args) == 0 {
			return errors.New("URL is required (use --list-urls to see scanned pages)")
		}
		url, err = config.NormalizeURL(args[0])
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
	}

	dbDir, err := historyDir(opts.configPath)
	if err != nil {
		return err
	}

	// Reading history never creates an empty database.
	dbOpts := database.DefaultOptions()
	dbOpts.CreateIfNotExists = false
	db, err := database.Open(dbDir, dbOpts)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return fmt.Errorf("no scan history yet in %s (run 'a11yscan scan' first)", dbDir)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.listURLs:
		return listScannedURLs(ctx, out, db)
	case opts.list:
		return listScanHistory(ctx, out, db, url)
	case opts.delete:
		return deleteScanHistory(ctx, out, db, url)
	}

	comparison, err := runComparison(ctx, db, url, opts.withScanID, opts.since)
	if err != nil {
		return err
	}

	switch {
	case opts.json:
		return outputComparisonJSON(out, comparison)
	case opts.markdown:
		return outputComparisonMarkdown(out, comparison)
	default:
		return outputComparisonText(out, comparison)
	}
}

// historyDir returns the history database directory: history.dir from the
// configuration file when set, the XDG data directory otherwise.
func historyDir(configPath string) (string, error) {
	path := config.FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return "", fmt.Errorf("configuration file not found: %s", configPath)
		}
		return config.XDGDataDir(), nil
	}

	f, err := config.LoadConfigFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if f.History.Dir != "" {
		return f.History.Dir, nil
	}
	return config.XDGDataDir(), nil
}

// listScannedURLs lists all pages that have scan records in the database.
func listScannedURLs(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	urls, err := db.ListScannedURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list scanned URLs: %w", err)
	}

	if len(urls) == 0 {
		fmt.Fprintln(out, "No scanned pages found in the database.")
		fmt.Fprintln(out, "\nUse 'a11yscan scan <url>' to scan a page.")
		return nil
	}

	fmt.Fprintf(out, "Scanned pages (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  • %s\n", u)
	}
	fmt.Fprintln(out, "\nUse 'a11yscan compare --list <url>' to see the scan history of a page.")

	return nil
}

// listScanHistory lists all scan records for a page.
func listScanHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, url string) error {
	records, err := db.GetScanHistory(ctx, url, 0)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No scan history found for %s\n", url)
		fmt.Fprintln(out, "\nUse 'a11yscan scan' to scan this page.")
		return nil
	}

	fmt.Fprintf(out, "Scan history for %s (%d scans):\n\n", url, len(records))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %s\n", "ID", "Date", "WCAG", "Affected Elements")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))

	for _, rec := range records {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %s\n",
			rec.ID,
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			formatLevels(rec.WCAGLevels),
			formatImpactSummary(rec.Summary),
		)
	}

	fmt.Fprintln(out, "\nUse 'a11yscan compare <url>' to compare the latest two scans.")
	fmt.Fprintln(out, "Use 'a11yscan compare --with-scan-id <id> <url>' to compare with a specific scan.")

	return nil
}

// deleteScanHistory removes all scan records of a page.
func deleteScanHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, url string) error {
	n, err := db.DeleteScanHistory(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to delete scan history: %w", err)
	}
	fmt.Fprintf(out, "Deleted %d scan(s) of %s\n", n, url)
	return nil
}

// formatImpactSummary formats the impact counts into a short string.
func formatImpactSummary(s model.ScanSummary) string {
	var parts []string
	if s.Critical > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", s.Critical))
	}
	if s.Serious > 0 {
		parts = append(parts, fmt.Sprintf("S:%d", s.Serious))
	}
	if s.Moderate > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", s.Moderate))
	}
	if s.Minor > 0 {
		parts = append(parts, fmt.Sprintf("m:%d", s.Minor))
	}

	if len(parts) == 0 {
		if s.TotalViolations > 0 {
			return fmt.Sprintf("%d unclassified", s.TotalViolations)
		}
		return noViolationsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison loads the latest scan of url and the scan selected by
// withScanID, sinceDate or, by default, the one before the latest.
func runComparison(ctx context.Context, db *database.HistoryDB, url string, withScanID int64, sinceDate string) (*ComparisonResult, error) {
	records, err := db.GetScanHistory(ctx, url, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no scan history found for %s", url)
	}

	if len(records) < 2 && withScanID == 0 && sinceDate == "" {
		return nil, fmt.Errorf("at least 2 scans are required for comparison (found %d)", len(records))
	}

	// The latest record is always the current one.
	current := records[0]
	var previous database.ScanRecord

	switch {
	case withScanID > 0:
		found := false
		for _, rec := range records {
			if rec.ID == withScanID {
				previous, found = rec, true
				break
			}
		}
		if !found {
			// Distinguish an unknown ID from one that belongs to another page.
			other, err := db.GetScanResult(ctx, withScanID)
			if err != nil {
				if errors.Is(err, database.ErrScanNotFound) {
					return nil, fmt.Errorf("scan with ID %d not found", withScanID)
				}
				return nil, fmt.Errorf("failed to get scan with ID %d: %w", withScanID, err)
			}
			return nil, fmt.Errorf("scan ID %d belongs to %s, not %s", withScanID, other.URL, url)
		}
		if previous.ID == current.ID {
			return nil, fmt.Errorf("scan ID %d is the latest scan; choose an earlier one", withScanID)
		}
	case sinceDate != "":
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Records are newest first, so walk backwards to find the oldest match.
		found := false
		for i := len(records) - 1; i >= 0; i-- {
			if !records[i].Timestamp.Before(parsedDate) {
				previous, found = records[i], true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no scans found since %s", sinceDate)
		}
		if previous.ID == current.ID {
			return nil, fmt.Errorf("only one scan found since %s; at least 2 scans are required for comparison", sinceDate)
		}
	default:
		previous = records[1]
	}

	prevResult, err := db.GetScanResult(ctx, previous.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan %d: %w", previous.ID, err)
	}
	currResult, err := db.GetScanResult(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan %d: %w", current.ID, err)
	}

	return newComparison(previous.ID, current.ID, prevResult, currResult), nil
}

// ComparisonResult holds the result of comparing two scans of a page.
type ComparisonResult struct {
	// URL is the scanned page.
	URL string `json:"url"`

	// PreviousScan contains metadata about the earlier scan.
	PreviousScan ScanMetadata `json:"previous_scan"`

	// CurrentScan contains metadata about the latest scan.
	CurrentScan ScanMetadata `json:"current_scan"`

	// NewViolations are failing elements absent from the earlier scan.
	NewViolations []model.NodeChange `json:"new_violations,omitempty"`

	// ResolvedViolations are failing elements of the earlier scan that are gone.
	ResolvedViolations []model.NodeChange `json:"resolved_violations,omitempty"`

	// UnchangedCount is the number of failing elements present in both scans.
	UnchangedCount int `json:"unchanged_count"`

	// Change describes the overall change per impact.
	Change ImpactChange `json:"change"`
}

// ScanMetadata contains metadata about a scan for comparison display.
type ScanMetadata struct {
	ID              int64     `json:"id"`
	DateScanned     time.Time `json:"date_scanned"`
	TotalViolations int       `json:"total_violations"`
	Critical        int       `json:"critical"`
	Serious         int       `json:"serious"`
	Moderate        int       `json:"moderate"`
	Minor           int       `json:"minor"`
}

// ImpactChange describes the change in affected elements between scans.
type ImpactChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction     model.Direction `json:"direction"`
	CriticalDelta int             `json:"critical_delta"`
	SeriousDelta  int             `json:"serious_delta"`
	ModerateDelta int             `json:"moderate_delta"`
	MinorDelta    int             `json:"minor_delta"`
	TotalDelta    int             `json:"total_delta"`
}

// newComparison builds the display form of the diff of two scans.
func newComparison(prevID, currID int64, previous, current *model.ScanResult) *ComparisonResult {
	diff := model.Diff(previous, current)
	return &ComparisonResult{
		URL:                diff.URL,
		PreviousScan:       scanMetadata(prevID, diff.Previous),
		CurrentScan:        scanMetadata(currID, diff.Current),
		NewViolations:      diff.New,
		ResolvedViolations: diff.Resolved,
		UnchangedCount:     diff.Unchanged,
		Change: ImpactChange{
			Direction:     diff.Direction,
			CriticalDelta: diff.Delta(model.ImpactCritical),
			SeriousDelta:  diff.Delta(model.ImpactSerious),
			ModerateDelta: diff.Delta(model.ImpactModerate),
			MinorDelta:    diff.Delta(model.ImpactMinor),
			TotalDelta:    diff.TotalDelta(),
		},
	}
}

func scanMetadata(id int64, s model.ScanSummary) ScanMetadata {
	return ScanMetadata{
		ID:              id,
		DateScanned:     s.Timestamp,
		TotalViolations: s.TotalViolations,
		Critical:        s.Critical,
		Serious:         s.Serious,
		Moderate:        s.Moderate,
		Minor:           s.Minor,
	}
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Scan Comparison: " + result.URL)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainText("**Status:** " + formatDirection(result.Change.Direction))
	md.PlainText("")

	prev, curr, change := result.PreviousScan, result.CurrentScan, result.Change
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Scan ID", strconv.FormatInt(prev.ID, 10), strconv.FormatInt(curr.ID, 10), "-"},
			{"Date", prev.DateScanned.Local().Format("2006-01-02 15:04"), curr.DateScanned.Local().Format("2006-01-02 15:04"), "-"},
			{"Critical", strconv.Itoa(prev.Critical), strconv.Itoa(curr.Critical), formatDelta(change.CriticalDelta)},
			{"Serious", strconv.Itoa(prev.Serious), strconv.Itoa(curr.Serious), formatDelta(change.SeriousDelta)},
			{"Moderate", strconv.Itoa(prev.Moderate), strconv.Itoa(curr.Moderate), formatDelta(change.ModerateDelta)},
			{"Minor", strconv.Itoa(prev.Minor), strconv.Itoa(curr.Minor), formatDelta(change.MinorDelta)},
			{"**Total**", "**" + strconv.Itoa(prev.TotalViolations) + "**", "**" + strconv.Itoa(curr.TotalViolations) + "**", "**" + formatDelta(change.TotalDelta) + "**"},
		},
	})
	md.PlainText("")

	if len(result.NewViolations) > 0 {
		md.H2(fmt.Sprintf("New Violations (%d)", len(result.NewViolations)))
		md.PlainText("")
		md.BulletList(markdownChanges(result.NewViolations, false)...)
		md.PlainText("")
	}

	if len(result.ResolvedViolations) > 0 {
		md.H2(fmt.Sprintf("Resolved Violations (%d)", len(result.ResolvedViolations)))
		md.PlainText("")
		md.BulletList(markdownChanges(result.ResolvedViolations, true)...)
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText(fmt.Sprintf("*%d failing element(s) unchanged*", result.UnchangedCount))
	}

	return md.Build()
}

func markdownChanges(changes []model.NodeChange, strike bool) []string {
	items := make([]string, len(changes))
	for i, c := range changes {
		item := fmt.Sprintf("**[%s]** `%s`: %s (`%s`)", c.Impact.Label(), c.RuleID, c.Help, strings.Join(c.Target, " > "))
		if strike {
			item = "~~" + item + "~~"
		}
		items[i] = item
	}
	return items
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Scan Comparison: %s\n", result.URL)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nStatus: %s\n", formatDirection(result.Change.Direction))

	fmt.Fprintf(out, "\nPrevious scan: #%d  %s\n", result.PreviousScan.ID, result.PreviousScan.DateScanned.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current scan:  #%d  %s\n", result.CurrentScan.ID, result.CurrentScan.DateScanned.Local().Format("2006-01-02 15:04:05"))

	prev, curr, change := result.PreviousScan, result.CurrentScan, result.Change
	fmt.Fprintln(out, "\nAffected Elements:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Impact", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Critical", prev.Critical, curr.Critical, formatDelta(change.CriticalDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Serious", prev.Serious, curr.Serious, formatDelta(change.SeriousDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Moderate", prev.Moderate, curr.Moderate, formatDelta(change.ModerateDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Minor", prev.Minor, curr.Minor, formatDelta(change.MinorDelta))
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Total", prev.TotalViolations, curr.TotalViolations, formatDelta(change.TotalDelta))

	if len(result.NewViolations) > 0 {
		fmt.Fprintf(out, "\nNew Violations (%d):\n", len(result.NewViolations))
		for _, c := range result.NewViolations {
			fmt.Fprintf(out, "  + [%s] %s: %s\n", c.Impact.Label(), c.RuleID, strings.Join(c.Target, " > "))
		}
	}

	if len(result.ResolvedViolations) > 0 {
		fmt.Fprintf(out, "\nResolved Violations (%d):\n", len(result.ResolvedViolations))
		for _, c := range result.ResolvedViolations {
			fmt.Fprintf(out, "  - [%s] %s: %s\n", c.Impact.Label(), c.RuleID, strings.Join(c.Target, " > "))
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\n%d failing element(s) unchanged\n", result.UnchangedCount)
	}

	return nil
}

// formatDelta formats a numeric delta with sign.
func formatDelta(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return strconv.Itoa(delta)
}

// formatDirection formats the direction with a marker.
func formatDirection(direction model.Direction) string {
	switch direction {
	case model.DirectionImproved:
		return "✅ Improved"
	case model.DirectionWorsened:
		return "⚠️ Worsened"
	default:
		return "➖ Unchanged"
	}
}
