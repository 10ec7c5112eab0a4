// Package cli implements the gdprscan command line. It runs the same
// generator as the API without a database, useful for checking what a URL
// will produce before scanning it for real.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Seedgta1/N8/internal/config"
	"github.com/Seedgta1/N8/internal/domain/compliance"
	"github.com/Seedgta1/N8/internal/domain/scans"
)

type scanOptions struct {
	threshold int
	mode      string
	catalog   string
	asJSON    bool
	raw       bool
}

// scanOutput is the --json document for one URL.
type scanOutput struct {
	URL              string                   `json:"url"`
	Hash             int64                    `json:"hash"`
	Threshold        int                      `json:"threshold"`
	IsCompliant      bool                     `json:"is_compliant"`
	IssuesCount      int                      `json:"issues_count"`
	PotentialFineEUR int                      `json:"potential_fine_eur"`
	Suggestions      []compliance.IssueRecord `json:"suggestions"`
}

// NewRootCmd builds the command tree. out receives normal output.
func NewRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "gdprscan",
		Short:         "Offline GDPR compliance issue generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newScanCmd(), newCatalogCmd(), newHashCmd())
	return root
}

func newScanCmd() *cobra.Command {
	var o scanOptions
	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Evaluate a URL and print the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.OutOrStdout(), args[0], o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.threshold, "threshold", -1, "compliance threshold 0-9 (default: preset of --mode)")
	f.StringVar(&o.mode, "mode", "production", "scan mode: development or production")
	f.StringVar(&o.catalog, "catalog", "", "catalog YAML file (default: built-in)")
	f.BoolVar(&o.asJSON, "json", false, "print JSON instead of a table")
	f.BoolVar(&o.raw, "raw", false, "hash the input as given, without URL normalization")
	return cmd
}

func runScan(w io.Writer, input string, o scanOptions) error {
	catalog, err := compliance.LoadCatalog(o.catalog)
	if err != nil {
		return err
	}
	switch o.mode {
	case "development", "production":
	default:
		return fmt.Errorf("%w: %q", config.ErrInvalidScanMode, o.mode)
	}
	th := compliance.ThresholdForMode(o.mode)
	if o.threshold >= 0 {
		th = compliance.Threshold(o.threshold)
	}
	gen, err := compliance.NewGenerator(catalog, th)
	if err != nil {
		return err
	}

	target := input
	if !o.raw {
		if target, err = scans.NormalizeURL(input); err != nil {
			return err
		}
	}
	v := gen.Evaluate(target)
	res := scanOutput{
		URL:              target,
		Hash:             v.Hash,
		Threshold:        int(th),
		IsCompliant:      v.Compliant,
		IssuesCount:      len(v.Issues),
		PotentialFineEUR: compliance.TotalFine(v.Issues),
		Suggestions:      v.Issues,
	}
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	verdict := "NON CONFORME"
	if res.IsCompliant {
		verdict = "CONFORME"
	}
	fmt.Fprintf(w, "%s\n%s (%d issues, %d EUR)\n", res.URL, verdict, res.IssuesCount, res.PotentialFineEUR)
	if res.IssuesCount == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return writeIssues(w, res.Suggestions)
}

func writeIssues(w io.Writer, issues []compliance.IssueRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCRITICALITY\tCATEGORY\tFINE EUR")
	for _, is := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", is.ID, is.Criticality.Label(), is.Category.Label(), strconv.Itoa(is.FineAmountEUR))
	}
	return tw.Flush()
}

func newCatalogCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the issue catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := compliance.LoadCatalog(path)
			if err != nil {
				return err
			}
			return writeIssues(cmd.OutOrStdout(), c.Records())
		},
	}
	cmd.Flags().StringVar(&path, "catalog", "", "catalog YAML file (default: built-in)")
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <input>",
		Short: "Print the seed hash of a string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), compliance.Hash(args[0]))
			return err
		},
	}
}
