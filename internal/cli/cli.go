package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/databridge/sql-gcs-etl/internal/config"
	"github.com/databridge/sql-gcs-etl/internal/core/export"
	"github.com/databridge/sql-gcs-etl/internal/core/schema"
	"github.com/databridge/sql-gcs-etl/internal/core/sink"
	"github.com/databridge/sql-gcs-etl/internal/core/source"
)

var (
	rootCmd = &cobra.Command{
		Use:   "sql-export",
		Short: "SQL to Google Cloud Storage export tool",
		Long: `Runs a SQL statement against a configured source database and uploads
the results to a GCS bucket in JSON or CSV format, along with a schema
file for the warehouse loader.`,
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Run one export job",
		Long: `Execute the configured SQL statement, stream the result rows into
chunked data files and upload them together with the derived schema file.`,
		RunE: runExport,
	}

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the source connection",
		Long: `Open the configured source connection and ping it, without executing
any statement or uploading anything.`,
		RunE: runValidate,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("sql-export v1.0")
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Connection flags
	rootCmd.PersistentFlags().String("connections", "connections.json", "path to connections JSON file")
	rootCmd.PersistentFlags().String("connection-id", "", "connection id to export from")

	// Export command specific flags
	exportCmd.Flags().String("sql", "", "SQL statement to execute")
	exportCmd.Flags().String("job", "", "path to a JSON job file (overrides the job flags)")
	exportCmd.Flags().String("bucket", "", "destination GCS bucket")
	exportCmd.Flags().String("credentials-file", "", "path to GCS credentials file")
	exportCmd.Flags().String("format", "json", "output format: json or csv")
	exportCmd.Flags().String("object", "", "destination object name for data chunks")
	exportCmd.Flags().String("schema-object", "", "destination object name for the schema file")
	exportCmd.Flags().Int64("max-chunk-bytes", 100<<20, "approximate max bytes per data chunk")
	exportCmd.Flags().Bool("gzip", false, "gzip data chunks")
	exportCmd.Flags().Bool("dry-run", false, "run the export without uploading to GCS")

	// Add commands
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all flags to viper
	viper.BindPFlags(rootCmd.PersistentFlags())
	viper.BindPFlags(exportCmd.Flags())

	viper.SetEnvPrefix("SQLEXPORT")
	viper.AutomaticEnv()
}

func newLogger() *slog.Logger {
	//nolint:exhaustruct // optional config
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: "15:04:05",
	}))
}

func loadHook() (*source.Hook, error) {
	loader, err := config.NewLoader[map[string]source.ConnectionConfig](viper.GetString("connections"))
	if err != nil {
		return nil, fmt.Errorf("create connections loader: %w", err)
	}

	connections, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}

	return source.NewHook(connections), nil
}

func jobConfig() (export.Config, error) {
	if jobFile := viper.GetString("job"); jobFile != "" {
		loader, err := config.NewLoader[export.Config](jobFile)
		if err != nil {
			return export.Config{}, fmt.Errorf("create job loader: %w", err)
		}
		return loader.Load()
	}

	return export.Config{
		ConnectionID: viper.GetString("connection-id"),
		SQL:          viper.GetString("sql"),
		Writer: sink.WriterConfig{
			Format:        sink.Format(viper.GetString("format")),
			Object:        viper.GetString("object"),
			SchemaObject:  viper.GetString("schema-object"),
			MaxChunkBytes: viper.GetInt64("max-chunk-bytes"),
			Gzip:          viper.GetBool("gzip"),
		},
	}, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := newLogger()

	hook, err := loadHook()
	if err != nil {
		return err
	}
	defer hook.Close()

	job, err := jobConfig()
	if err != nil {
		return err
	}

	var uploader sink.Uploader
	if viper.GetBool("dry-run") {
		uploader = sink.NewMemoryUploader()
	} else {
		gcs, err := sink.NewGCSUploader(ctx, sink.GCSConfig{
			Bucket:          viper.GetString("bucket"),
			CredentialsFile: viper.GetString("credentials-file"),
		})
		if err != nil {
			return fmt.Errorf("create gcs uploader: %w", err)
		}
		defer gcs.Close()
		uploader = gcs
	}

	pipeline := export.NewPipeline(hook, uploader, schema.SerializableValue, log)

	result, err := pipeline.Run(ctx, job)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	log.Info("export complete",
		slog.String("job_id", result.JobID),
		slog.Int64("rows", result.Rows),
		slog.Int("chunks", len(result.Objects)),
	)

	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	hook, err := loadHook()
	if err != nil {
		return err
	}
	defer hook.Close()

	connectionID := viper.GetString("connection-id")
	if _, err := hook.Connection(context.Background(), connectionID); err != nil {
		return fmt.Errorf("connection %q is not usable: %w", connectionID, err)
	}

	fmt.Println("Configuration is valid and database is accessible")
	return nil
}
