package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/boddenberg/realty-portal-bfa/internal/scope"
	"github.com/boddenberg/realty-portal-bfa/internal/service"
	"github.com/spf13/cobra"
)

var (
	selCompany   string
	selAgent     string
	clientSort   string
	clientSearch string
	exportFormat string
	exportOut    string
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Client records",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the clients visible to the signed-in account",
	RunE:  runClientsList,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Portal users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the users visible to the signed-in account",
	RunE:  runUsersList,
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Agent performance",
}

var agentsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export agent performance as CSV or XLSX",
	RunE:  runAgentsExport,
}

func init() {
	for _, c := range []*cobra.Command{clientsListCmd, usersListCmd, agentsExportCmd} {
		c.Flags().StringVar(&selCompany, "company-id", "", "company filter (global admins only)")
		c.Flags().StringVar(&selAgent, "agent-id", "", "agent filter")
	}
	clientsListCmd.Flags().StringVar(&clientSort, "sort", "", "sort field, prefix with - for descending (e.g. -createdAt)")
	clientsListCmd.Flags().StringVar(&clientSearch, "search", "", "free text search")
	agentsExportCmd.Flags().StringVar(&exportFormat, "format", service.FormatCSV, "csv or xlsx")
	agentsExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: the suggested file name)")

	clientsCmd.AddCommand(clientsListCmd)
	usersCmd.AddCommand(usersListCmd)
	agentsCmd.AddCommand(agentsExportCmd)
	rootCmd.AddCommand(clientsCmd, usersCmd, agentsCmd)
}

func selection() scope.Selection {
	return scope.Selection{CompanyID: selCompany, AgentID: selAgent}
}

func runClientsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.fetcher.Clients(cmd.Context(), a.store, service.ClientQuery{
		Selection: selection(),
		Sort:      clientSort,
		Search:    clientSearch,
	})
	if err != nil {
		return err
	}
	if snap.Error != "" {
		return fmt.Errorf("list clients: %s", snap.Error)
	}
	if jsonOutput {
		return printJSON(cmd, snap.Items)
	}
	w := table(cmd)
	fmt.Fprintln(w, "ID\tCUSTOMER\tEMAIL\tDOCUMENT\tEXPIRES")
	for _, c := range snap.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.CustomerName, c.Email, c.DocumentType, c.ExpirationDate)
	}
	return w.Flush()
}

func runUsersList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.fetcher.Users(cmd.Context(), a.store, selection())
	if err != nil {
		return err
	}
	if snap.Error != "" {
		return fmt.Errorf("list users: %s", snap.Error)
	}
	if jsonOutput {
		return printJSON(cmd, snap.Items)
	}
	w := table(cmd)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range snap.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, u.IsActive)
	}
	return w.Flush()
}

func runAgentsExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := service.NewExporter(a.fetcher).AgentPerformance(cmd.Context(), a.store, selection(), exportFormat)
	if err != nil {
		return err
	}
	out := exportOut
	if out == "" {
		out = file.Filename
	}
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(file.Data)
		return err
	}
	if err := os.WriteFile(out, file.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(file.Data))
	return nil
}

func table(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
