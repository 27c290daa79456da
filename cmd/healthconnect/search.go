package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/healthconnect/backend/internal/adapters/providers/geolocation"
	"github.com/healthconnect/backend/internal/application/services"
	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	"github.com/healthconnect/backend/pkg/config"
)

func newFinder(provider string) (*services.HospitalFinderService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	observability.InitLogger("healthconnect-cli", cfg.Env)

	if provider != "" {
		cfg.Geo.Provider = provider
	}
	sources, err := geolocation.NewSources(cfg.Geo, nil)
	if err != nil {
		return nil, err
	}
	return services.NewHospitalFinderService(services.HospitalFinderOptions{
		Geocoder: sources.Geocoder,
		Primary:  sources.Primary,
		Fallback: sources.Fallback,
	}), nil
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find hospitals near a place or coordinate",
		Example: `  healthconnect search --location "Victoria Island, Lagos" --radius 5000
  healthconnect search --lat 6.5244 --lng 3.3792 --radius 2000 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			location, _ := cmd.Flags().GetString("location")
			radius, _ := cmd.Flags().GetInt("radius")
			provider, _ := cmd.Flags().GetString("provider")
			asJSON, _ := cmd.Flags().GetBool("json")

			hasCoords := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
			if strings.TrimSpace(location) == "" && !hasCoords {
				return fmt.Errorf("either --location or --lat/--lng is required")
			}

			finder, err := newFinder(provider)
			if err != nil {
				return err
			}

			var result *entities.SearchResult
			if hasCoords {
				lat, _ := cmd.Flags().GetFloat64("lat")
				lng, _ := cmd.Flags().GetFloat64("lng")
				if radius == 0 {
					radius = entities.DefaultSearchRadius
				}
				result, err = finder.Search(cmd.Context(), entities.SearchQuery{
					Origin:       entities.Coordinates{Latitude: lat, Longitude: lng},
					RadiusMeters: radius,
				})
			} else {
				result, err = finder.SearchByLocation(cmd.Context(), location, radius)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().String("location", "", "Free-text place to search around")
	cmd.Flags().Float64("lat", 0, "Origin latitude")
	cmd.Flags().Float64("lng", 0, "Origin longitude")
	cmd.Flags().Int("radius", 0, "Search radius in meters (1000, 2000, 5000, 10000 or 25000)")
	cmd.Flags().String("provider", "", "Override GEO_PROVIDER (osm or static)")
	cmd.Flags().Bool("json", false, "Print the raw result as JSON")
	return cmd
}

func printResult(out io.Writer, result *entities.SearchResult) error {
	fmt.Fprintf(out, "%d facilities within %.0f km of %.4f,%.4f (source: %s)\n\n",
		len(result.Facilities), float64(result.RadiusMeters)/1000,
		result.Origin.Latitude, result.Origin.Longitude, result.Source)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tDISTANCE\tADDRESS\tPHONE")
	for i, f := range result.Facilities {
		distance := "-"
		if f.DistanceKm != nil {
			distance = fmt.Sprintf("%.2f km", *f.DistanceKm)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, f.Name, f.PlaceType, distance, f.DisplayAddress(), f.Phone)
	}
	return tw.Flush()
}

func geocodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geocode <location>",
		Short: "Resolve a place name to coordinates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, _ := cmd.Flags().GetString("provider")
			finder, err := newFinder(provider)
			if err != nil {
				return err
			}

			location := strings.Join(args, " ")
			coords, err := finder.ResolveText(cmd.Context(), location)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.6f,%.6f\n", location, coords.Latitude, coords.Longitude)
			return nil
		},
	}
	cmd.Flags().String("provider", "", "Override GEO_PROVIDER (osm or static)")
	return cmd
}
