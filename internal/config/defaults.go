package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel       = "error"
	DefaultJSONLog        = false
	DefaultSourceURL      = "https://ultimosismo.igp.gob.pe/ultimo-sismo/sismos-reportados"
	DefaultMode           = "auto"
	DefaultSink           = "file"
	DefaultOutputDir      = "."
	DefaultTable          = "sismos_igp"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRenderWait     = 30 * time.Second
	DefaultSettleDelay    = 2 * time.Second
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "es-ES,es;q=0.9,en;q=0.8"
	DefaultHeadless       = true
	DefaultListenAddr     = ":8080"
	DefaultEnvFile        = ".env"
)
