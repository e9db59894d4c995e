package domain

// TableCode is a signed scan URL for one table.
type TableCode struct {
	URL          string `json:"url"`
	Token        string `json:"token"`
	TableID      string `json:"table_id"`
	TableName    string `json:"table_name"`
	TokenVersion int64  `json:"token_version"`
}

// ScanTarget is where a successfully validated scan should land.
type ScanTarget struct {
	TenantID  string `json:"tenant_id"`
	TableID   string `json:"table_id"`
	TableName string `json:"table_name"`
}

// CodeFormat is the artifact format of a single table download.
type CodeFormat string

const (
	CodeFormatPNG CodeFormat = "png"
	CodeFormatSVG CodeFormat = "svg"
	CodeFormatPDF CodeFormat = "pdf"
)

func (f CodeFormat) Valid() bool {
	switch f {
	case CodeFormatPNG, CodeFormatSVG, CodeFormatPDF:
		return true
	}
	return false
}

func (f CodeFormat) MimeType() string {
	switch f {
	case CodeFormatPNG:
		return "image/png"
	case CodeFormatSVG:
		return "image/svg+xml"
	case CodeFormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func (f CodeFormat) Extension() string {
	return string(f)
}

// BatchFormat is the artifact format of a multi-table download.
type BatchFormat string

const (
	BatchFormatZipPNG      BatchFormat = "zip-png"
	BatchFormatZipPDF      BatchFormat = "zip-pdf"
	BatchFormatCombinedPDF BatchFormat = "combined-pdf"
)

func (f BatchFormat) Valid() bool {
	switch f {
	case BatchFormatZipPNG, BatchFormatZipPDF, BatchFormatCombinedPDF:
		return true
	}
	return false
}

func (f BatchFormat) MimeType() string {
	if f == BatchFormatCombinedPDF {
		return "application/pdf"
	}
	return "application/zip"
}

func (f BatchFormat) Extension() string {
	if f == BatchFormatCombinedPDF {
		return "pdf"
	}
	return "zip"
}

// File is a named, typed blob ready to be streamed to a client.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}
