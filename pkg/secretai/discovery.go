package secretai

import (
	"context"
	"fmt"

	"github.com/scrtlabs/trading-middleware/pkg/secret"
)

type getModelsQuery struct {
	GetModels struct{} `json:"get_models"`
}

type getModelsResponse struct {
	Models []string `json:"models"`
}

type getURLsQuery struct {
	GetURLs struct {
		Model string `json:"model"`
	} `json:"get_u_r_ls"`
}

type getURLsResponse struct {
	URLs []string `json:"urls"`
}

// Discover asks the worker contract for its registered models and inference
// endpoints and returns the first of each. Model may be pre-selected via
// config, in which case only the endpoint is discovered.
func Discover(ctx context.Context, client *secret.Client, workerContract, model string) (string, string, error) {
	if model == "" {
		var models getModelsResponse
		if err := client.SmartQuery(ctx, workerContract, &getModelsQuery{}, &models); err != nil {
			return "", "", fmt.Errorf("model discovery failed: %w", err)
		}
		if len(models.Models) == 0 {
			return "", "", fmt.Errorf("worker contract registered no models")
		}
		model = models.Models[0]
	}

	query := &getURLsQuery{}
	query.GetURLs.Model = model

	var urls getURLsResponse
	if err := client.SmartQuery(ctx, workerContract, query, &urls); err != nil {
		return "", "", fmt.Errorf("endpoint discovery failed: %w", err)
	}
	if len(urls.URLs) == 0 {
		return "", "", fmt.Errorf("no inference endpoints registered for model %s", model)
	}

	return model, urls.URLs[0], nil
}
