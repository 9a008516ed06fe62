package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/example/field-scheduler/internal/booking"
	"github.com/example/field-scheduler/internal/logging"
	"github.com/example/field-scheduler/internal/salesforce"
	"github.com/spf13/cobra"
)

// newDirectoryCmd wires read-only catalog inspection subcommands, for
// poking at a tenant without running the server.
func newDirectoryCmd() *cobra.Command {
	var accessToken, tenantEndpoint string

	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Inspect the upstream scheduling catalog",
	}
	cmd.PersistentFlags().StringVar(&accessToken, "access-token", os.Getenv("SF_ACCESS_TOKEN"), "upstream access token (or SF_ACCESS_TOKEN)")
	cmd.PersistentFlags().StringVar(&tenantEndpoint, "tenant-endpoint", os.Getenv("SF_TENANT_ENDPOINT"), "upstream instance endpoint (or SF_TENANT_ENDPOINT)")

	resolver := func() (*booking.Resolver, error) {
		creds := salesforce.Credentials{AccessToken: accessToken, TenantEndpoint: tenantEndpoint}
		if !creds.Valid() {
			return nil, fmt.Errorf("access token and tenant endpoint are required")
		}
		log := logging.New("warn", "console")
		return booking.NewResolver(salesforce.New(creds), log), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "groups",
		Short: "List active work-type groups and their work types",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolver()
			if err != nil {
				return err
			}
			groups, err := r.WorkTypeGroups(context.Background())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tNAME\tWORK TYPE\tDURATION")
			for _, g := range groups {
				if len(g.WorkTypes) == 0 {
					fmt.Fprintf(tw, "%s\t%s\t-\t-\n", g.ID, g.Name)
					continue
				}
				for _, wt := range g.WorkTypes {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d %s\n", g.ID, g.Name, wt.Name, wt.EstimatedDuration, wt.DurationUnit)
				}
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "territories",
		Short: "List schedulable service territories",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolver()
			if err != nil {
				return err
			}
			territories, err := r.ListServiceTerritories(context.Background())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tOPERATING HOURS")
			for _, t := range territories {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Address(), t.OperatingHoursID)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "resources",
		Short: "List active service resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolver()
			if err != nil {
				return err
			}
			resources, err := r.ListServiceResources(context.Background())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tEMAIL")
			for _, res := range resources {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.ID, res.Name, res.ResourceType, res.Email)
			}
			return tw.Flush()
		},
	})

	return cmd
}
