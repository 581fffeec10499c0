package storage

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("resume-sync/storage")
