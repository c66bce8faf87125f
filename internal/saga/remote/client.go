// Package remote implements the saga collaborator contracts over HTTP for
// deployments where inventory and pricing run as separate services.
package remote

import (
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/types"
)

func newClient(baseURL string) (*resty.Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL required")
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	return client, nil
}

// decodeError turns a non-2xx collaborator response back into a typed
// error so the orchestrator sees the same taxonomy it would in-process.
func decodeError(resp *resty.Response) error {
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err == nil && envelope.Error.Code != "" {
		return pkgerrors.New(pkgerrors.Code(envelope.Error.Code), envelope.Error.Message).
			WithDetails(envelope.Error.Details)
	}
	return pkgerrors.New(pkgerrors.CodeDependency,
		fmt.Sprintf("collaborator returned status %d", resp.StatusCode()))
}
