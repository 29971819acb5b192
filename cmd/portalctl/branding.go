package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/cache"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/tenant"
	"github.com/spf13/cobra"
)

var brandingCmd = &cobra.Command{
	Use:   "branding [slug]",
	Short: "Show the branding a company's portal renders with",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBranding,
}

func init() {
	rootCmd.AddCommand(brandingCmd)
}

func runBranding(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	slug := a.profile.Company
	if len(args) == 1 {
		slug = args[0]
	}
	if !tenant.ValidSlug(slug) {
		return errors.New("give a company slug or set company in the profile")
	}

	c := cache.New[domain.Branding](time.Minute)
	defer c.Close()
	b := tenant.NewResolver(a.client, c, a.profile.Timeout, observability.NewMetrics(), a.logger).Resolve(cmd.Context(), slug)

	if jsonOutput {
		return printJSON(cmd, b)
	}
	w := table(cmd)
	fmt.Fprintf(w, "Company\t%s\n", b.CompanyName)
	fmt.Fprintf(w, "Logo\t%s\n", b.LogoURL)
	fmt.Fprintf(w, "Primary\t%s\n", b.PrimaryColor)
	fmt.Fprintf(w, "Secondary\t%s\n", b.SecondaryColor)
	fmt.Fprintf(w, "Default\t%t\n", b.Default)
	return w.Flush()
}
