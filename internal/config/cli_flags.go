package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", false, "Log in JSON format")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("env-file", DefaultEnvFile, "Optional .env file to load")

	pf.String("url", "", "Page holding the earthquake table")
	pf.StringP("mode", "m", "", "Fetch mode: auto, static, rendered")
	pf.String("sink", "", "Where records go: file, table, none")
	pf.String("id-strategy", "", "Record identity: random, sequential (default depends on sink)")
	pf.String("split", "", "First-cell tokenization: whitespace, lines (default depends on fetch)")
	pf.StringP("out-dir", "o", "", "Directory for JSON documents")
	pf.String("gcs-bucket", "", "Write JSON documents to this GCS bucket instead of a directory")
	pf.String("gcs-prefix", "", "Object name prefix inside the GCS bucket")
	pf.String("dsn", "", "Postgres connection string for the table sink")
	pf.String("table", "", "Table name for the table sink")
	pf.String("timeout", "", "HTTP request timeout (e.g. 30s)")
	pf.String("render-wait", "", "Max wait for the first table row when rendering")
	pf.String("settle", "", "Pause after the table appears when rendering")
	pf.String("user-agent", "", "Custom user agent string")
	pf.String("proxy", "", "Set HTTP/SOCKS5 proxy (e.g., http://localhost:8080)")
	pf.StringArrayP("header", "H", nil, "Extra request header for static fetches (e.g., -H \"Referer: https://www.igp.gob.pe\")")
	pf.Bool("headful", false, "Show the browser window when rendering")
	pf.String("metrics-file", "", "Write Prometheus metrics to this textfile after each run")
}
