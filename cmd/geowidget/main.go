package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/logging"
	"github.com/joeblew999/geo-widget/internal/server"
)

// Options defines all CLI flags and env vars for the widget server.
// Flags: --host, --port, --data-dir, --web-dir, --config, --redis-addr, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_CONFIG, ...
type Options struct {
	Host          string `doc:"Host to bind to" default:"0.0.0.0"`
	Port          int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir       string `doc:"Directory for the DuckDB state file and tiles/" default:".data"`
	WebDir        string `doc:"Optional web/ directory with static files and fragment overrides"`
	Config        string `doc:"Widget catalogue (widgets.yaml); built-in catalogue when empty" short:"c"`
	RedisAddr     string `doc:"Redis address for session state; in-memory when empty"`
	RedisPassword string `doc:"Redis password"`
	RedisDB       int    `doc:"Redis database number" default:"0"`
	SessionTTL    int    `doc:"Session state lifetime in minutes" default:"720"`
	LogLevel      string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogFormat     string `doc:"Log format: text or json" default:"text"`
	LogFile       string `doc:"Also write logs to this rotated file"`
}

func newServer(ctx context.Context, opts *Options, log *slog.Logger) (*server.Server, error) {
	return server.New(ctx, server.Config{
		Host:          opts.Host,
		Port:          fmt.Sprintf("%d", opts.Port),
		DataDir:       opts.DataDir,
		WebDir:        opts.WebDir,
		Catalogue:     opts.Config,
		RedisAddr:     opts.RedisAddr,
		RedisPassword: opts.RedisPassword,
		RedisDB:       opts.RedisDB,
		SessionTTL:    time.Duration(opts.SessionTTL) * time.Minute,
		Logger:        log,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		log, logCloser := logging.New(logging.Options{Level: opts.LogLevel, Format: opts.LogFormat, File: opts.LogFile})
		slog.SetDefault(log)

		var httpServer *http.Server
		var srv *server.Server

		hooks.OnStart(func() {
			var err error
			srv, err = newServer(context.Background(), opts, log)
			if err != nil {
				log.Error("server setup failed", "error", err)
				os.Exit(1)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("geo-widget server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("server error", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if httpServer != nil {
				httpServer.Shutdown(ctx)
			}
			if srv != nil {
				srv.Close()
			}
			logCloser.Close()
		})
	})

	cli.Root().Use = "geowidget"
	cli.Root().Short = "Map widgets for editing SRID-prefixed WKT geometry fields"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			// The document does not depend on storage; skip opening DuckDB.
			opts.DataDir = ""
			opts.RedisAddr = ""
			srv, err := newServer(cmd.Context(), opts, logging.Discard())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error building server: %v\n", err)
				os.Exit(1)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// check-wkt subcommand: decode a stored field value
	checkCmd := &cobra.Command{
		Use:   "check-wkt <text>",
		Short: "Decode an SRID-prefixed WKT value and print it as GeoJSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := geom.Decode(args[0])
			if err != nil {
				return err
			}
			normalised := geom.Encode(d.Geometry)
			if d.SRID > 0 {
				normalised = geom.EncodeEWKT(d.SRID, d.Geometry)
			}
			out, err := json.MarshalIndent(map[string]any{
				"srid":     d.SRID,
				"kind":     d.Kind(),
				"geometry": geojson.NewGeometry(d.Geometry),
				"text":     normalised,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cli.Root().AddCommand(checkCmd)

	cli.Run()
}
