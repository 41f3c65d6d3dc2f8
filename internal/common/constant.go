package common

// DefaultContentType is used when neither the download response nor content
// sniffing yields a media type.
const DefaultContentType = "application/octet-stream"

// WarningPrefix marks log lines that report a non-fatal failure.
const WarningPrefix = "⚠"
