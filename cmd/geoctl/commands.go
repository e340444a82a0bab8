package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appeval "github.com/bryanwahyu/geo-authority/internal/application/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/bootstrap"
	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/exports"
)

type opener func(cmd *cobra.Command) (*bootstrap.App, error)

func companiesCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := open(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := app.Navigation.Companies(cmd.Context())
			if err != nil {
				return err
			}
			printCompanies(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func projectsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "projects <companyID>",
		Short: "List the projects of a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := open(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			view, err := app.Navigation.CompanyWithProjects(cmd.Context(), evaluation.CompanyID(args[0]))
			if err != nil {
				return err
			}
			printProjects(cmd.OutOrStdout(), view.Company, view.Projects)
			return nil
		},
	}
}

type runOptions struct {
	provider     string
	queryContext string
	state        string
	recalculate  bool
	outDir       string
	variant      string
	upload       bool
}

func runCmd(open opener) *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run <projectID>",
		Short: "Analyze a project, ask every question and write the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := exports.Variant(o.variant)
			if v != exports.VariantComprehensive && v != exports.VariantAuthority {
				return fmt.Errorf("unknown variant %q (comprehensive or authority)", o.variant)
			}
			app, err := open(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return runProject(cmd, app, evaluation.ProjectID(args[0]), v, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.provider, "provider", "p", "", "Assistant provider (defaults to the configured one)")
	f.StringVar(&o.queryContext, "context", "", "Extra context for question generation")
	f.StringVar(&o.state, "state", "", "Override the project's state/region")
	f.BoolVar(&o.recalculate, "recalculate", false, "Recalculate GEO metrics instead of using the generated snapshot")
	f.StringVarP(&o.outDir, "out", "o", ".", "Directory for the report file")
	f.StringVar(&o.variant, "variant", string(exports.VariantComprehensive), "Report variant: comprehensive or authority")
	f.BoolVar(&o.upload, "upload", false, "Also upload the report to object storage")
	return cmd
}

func runProject(cmd *cobra.Command, app *bootstrap.App, id evaluation.ProjectID, variant exports.Variant, o runOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sess, err := app.Evaluation.Load(ctx, id)
	if err != nil {
		return err
	}
	in := appeval.Input{
		Domain:       sess.Domain,
		Nation:       sess.Nation,
		State:        sess.State,
		QueryContext: o.queryContext,
	}
	if o.state != "" {
		in.State = o.state
	}

	headerColor.Fprintf(out, "Analyzing %s (%s)\n", in.Domain, location(in.Nation, in.State))
	sess, err = app.Evaluation.Start(ctx, id, in)
	if err != nil {
		return err
	}
	if o.provider != "" {
		for _, r := range sess.Results {
			if sess, err = app.Evaluation.SelectProvider(ctx, id, r.ID, o.provider); err != nil {
				return err
			}
		}
	}
	infoColor.Fprintf(out, "%d questions generated\n", len(sess.Results))

	sess, err = app.Evaluation.Evaluate(ctx, id)
	if err != nil {
		return err
	}
	if o.recalculate {
		fresh, err := app.Evaluation.RecalculateMetrics(ctx, id)
		if err != nil {
			warningColor.Fprintf(out, "metrics recalculation failed: %v\n", err)
		} else {
			sess = fresh
		}
	}
	printResults(out, sess)

	path, rec, err := app.Export.ExportToFile(ctx, id, variant, o.outDir, o.upload)
	if err != nil {
		return err
	}
	successColor.Fprintf(out, "Report written to %s\n", path)
	if rec != nil && rec.ArtifactURL != "" {
		successColor.Fprintf(out, "Uploaded: %s\n", rec.ArtifactURL)
	}
	return nil
}
