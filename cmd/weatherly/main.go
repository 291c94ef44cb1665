package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnamolZ/weatherly/config"
	"github.com/AnamolZ/weatherly/internal/api"
	"github.com/AnamolZ/weatherly/internal/geo"
	"github.com/AnamolZ/weatherly/internal/mqtt"
	"github.com/AnamolZ/weatherly/internal/refresher"
	"github.com/AnamolZ/weatherly/internal/storage"
	"github.com/AnamolZ/weatherly/internal/weather"
	"github.com/AnamolZ/weatherly/internal/widget"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weatherly",
		Short: "Weather widget",
		Long:  "Current conditions and a 5-day forecast for your location or any city",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(testCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLocator(cfg *config.Config) (geo.Locator, error) {
	return geo.New(
		cfg.Geolocation.Provider,
		cfg.Geolocation.URL,
		cfg.Geolocation.Latitude,
		cfg.Geolocation.Longitude,
		cfg.Geolocation.Timeout,
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the weather widget",
		Long:  "Start the widget web page, the JSON API and the optional MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			unit, err := weather.ParseUnit(cfg.Display.Unit)
			if err != nil {
				return err
			}

			locator, err := newLocator(cfg)
			if err != nil {
				return err
			}

			viewCfg := widget.ViewConfig{
				Fetcher:      weather.NewClient(cfg.Weather.APIURL, cfg.Weather.Timeout),
				Locator:      locator,
				FallbackCity: cfg.Weather.FallbackCity,
				Unit:         unit,
				Verbose:      verbose,
			}

			if cfg.Database.Enabled {
				db, err := storage.NewDatabase(cfg.Database.Path)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer db.Close()
				log.Printf("Database opened at %s", cfg.Database.Path)
				viewCfg.Store = db
			}

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
			} else {
				if cfg.MQTT.Enabled {
					log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
				}
				defer publisher.Close()
				viewCfg.Publisher = publisher
			}

			view := widget.NewView(viewCfg)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			// Mount
			go func() {
				if err := view.Init(ctx); err != nil {
					log.Printf("Initial fetch failed: %s", weather.Message(err))
				}
			}()

			ref := refresher.NewRefresher(refresher.RefresherConfig{
				Target:   view,
				Interval: cfg.Refresh.Interval,
			})
			go func() {
				if err := ref.Start(ctx); err != nil {
					log.Printf("Refresher error: %v", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:      cfg.API.Port,
					View:      view,
					Refresher: ref,
					Debug:     verbose,
				})

				go func() {
					if err := server.Start(); err != nil {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			log.Println("Weatherly started. Press Ctrl+C to stop.")

			<-sigChan
			log.Println("Shutting down...")
			cancel()

			if server != nil {
				shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
				defer stop()
				if err := server.Stop(shutdownCtx); err != nil {
					log.Printf("API server shutdown error: %v", err)
				}
			}

			return nil
		},
	}
}

func showCmd() *cobra.Command {
	var (
		forecast bool
		unitFlag string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "show [city]",
		Short: "Print the weather once",
		Long:  "Fetch the weather for a city, or for the current location when no city is given, and print it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if unitFlag == "" {
				unitFlag = cfg.Display.Unit
			}
			unit, err := weather.ParseUnit(unitFlag)
			if err != nil {
				return err
			}

			locator, err := newLocator(cfg)
			if err != nil {
				return err
			}

			if !verbose {
				log.SetOutput(io.Discard)
			}

			view := widget.NewView(widget.ViewConfig{
				Fetcher:      weather.NewClient(cfg.Weather.APIURL, cfg.Weather.Timeout),
				Locator:      locator,
				FallbackCity: cfg.Weather.FallbackCity,
				Unit:         unit,
				Verbose:      verbose,
			})
			if forecast {
				view.ToggleViewMode()
			}

			ctx := cmd.Context()
			if len(args) == 1 {
				err = view.Search(ctx, args[0])
			} else {
				err = view.Init(ctx)
			}

			state := view.State()
			if asJSON {
				output, _ := json.MarshalIndent(state, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
			} else if werr := widget.NewScreen(state).WriteText(cmd.OutOrStdout()); werr != nil {
				return werr
			}

			if err != nil {
				return fmt.Errorf("fetch failed: %s", weather.Message(err))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&forecast, "forecast", "f", false, "show the 5-day forecast table")
	cmd.Flags().StringVarP(&unitFlag, "unit", "u", "", "temperature unit (C or F)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the widget state as JSON")

	return cmd
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test connection to the weather backend",
		Long:  "Query the weather backend for the fallback city and report how it answered",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client := weather.NewClient(cfg.Weather.APIURL, cfg.Weather.Timeout)
			fmt.Printf("Testing connection to %s...\n", cfg.Weather.APIURL)

			result, err := client.Ping(cmd.Context(), weather.ByCity(cfg.Weather.FallbackCity))
			if err != nil {
				if result != nil {
					fmt.Printf("Connection FAILED (status %d, %s): %s\n", result.StatusCode, result.Latency.Round(time.Millisecond), weather.Message(err))
				} else {
					fmt.Printf("Connection FAILED: %v\n", err)
				}
				return err
			}

			fmt.Printf("Connection SUCCESS! (%s)\n", result.Latency.Round(time.Millisecond))
			fmt.Printf("  URL:       %s\n", result.URL)

			current := result.Report.Current
			fmt.Printf("\nCurrent Weather:\n")
			fmt.Printf("  Location:    %s, %s\n", current.Name, current.Country)
			fmt.Printf("  Temperature: %.1f °C\n", current.Temperature)
			fmt.Printf("  Humidity:    %d%%\n", current.Humidity)
			fmt.Printf("  Wind Speed:  %g m/s\n", current.WindSpeed)
			fmt.Printf("  Condition:   %s\n", current.Description)
			fmt.Printf("  Forecast:    %d days\n", len(result.Report.Forecast))

			locator, err := newLocator(cfg)
			if err != nil {
				return err
			}
			coords, err := locator.Locate(cmd.Context())
			if err != nil {
				fmt.Printf("\nGeolocation: unavailable (%v), falling back to %s\n", err, cfg.Weather.FallbackCity)
			} else {
				fmt.Printf("\nGeolocation: %.4f, %.4f\n", coords.Latitude, coords.Longitude)
			}

			return nil
		},
	}
}
