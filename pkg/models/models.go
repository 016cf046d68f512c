package models

import "time"

// Record is one earthquake report extracted from a table row.
//
// ID is set when records go to a table store, Number when they go to a file;
// the other one is left empty.
type Record struct {
	ID            string `json:"id,omitempty"`
	Number        int    `json:"numero,omitempty"`
	ReportType    string `json:"tipo_reporte"`
	ReportCode    string `json:"codigo_reporte"`
	Reference     string `json:"referencia"`
	LocalDateTime string `json:"fecha_hora_local"`
	Magnitude     string `json:"magnitud"`
	ReportLink    string `json:"enlace_reporte"`
}

// Document is the JSON artifact written by the file sink.
type Document struct {
	ExtractedAt time.Time `json:"fecha_extraccion"`
	Total       int       `json:"total_sismos"`
	SourceURL   string    `json:"url_origen"`
	Method      string    `json:"metodo"`
	Records     []Record  `json:"sismos"`
}

// FetchMode selects the fetch strategy
type FetchMode string

const (
	ModeAuto     FetchMode = "auto"
	ModeStatic   FetchMode = "static"
	ModeRendered FetchMode = "rendered"
)

// SinkKind selects where records are persisted
type SinkKind string

const (
	SinkFile  SinkKind = "file"
	SinkTable SinkKind = "table"
	SinkNone  SinkKind = "none"
)

// IDStrategy decides how records are identified
type IDStrategy string

const (
	// IDRandom assigns a random UUID to every record.
	IDRandom IDStrategy = "random"
	// IDSequential numbers each record with the 1-based position of its
	// table row. Skipped rows leave gaps.
	IDSequential IDStrategy = "sequential"
)

// TokenMode decides how the first cell is split into tokens
type TokenMode string

const (
	TokenWhitespace TokenMode = "whitespace"
	TokenLines      TokenMode = "lines"
)
