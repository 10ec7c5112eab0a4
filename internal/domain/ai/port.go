package ai

import (
	"context"

	"github.com/Seedgta1/N8/internal/domain/compliance"
)

// ScriptRequest is the input of a correction-script generation.
type ScriptRequest struct {
	SiteURL string
	Issues  []compliance.IssueRecord
}

type ScriptGenerator interface {
	GenerateScript(ctx context.Context, req ScriptRequest) (string, error)
}
