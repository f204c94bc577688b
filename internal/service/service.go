// Package service holds the account, project and task use cases. Every
// project or task mutation re-reads project ownership through Ownership
// before touching the repositories.
package service

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("projecthub/internal/service")
