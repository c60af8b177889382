package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/relaycast/internal/api/models"
	"github.com/smazurov/relaycast/internal/ffmpeg"
	"github.com/smazurov/relaycast/internal/sessions"
)

// registerOptionsRoutes registers the profile options endpoint.
func (s *Server) registerOptionsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-profile-options",
		Method:      http.MethodGet,
		Path:        "/api/profile-options",
		Summary:     "Get Profile Options",
		Description: "Legal values for every profile field, for building session forms",
		Tags:        []string{"configuration"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ProfileOptionsResponse, error) {
		return &models.ProfileOptionsResponse{
			Body: models.ProfileOptionsData{
				Bitrates:      sessions.BitrateOptions,
				Resolutions:   toStrings(sessions.ResolutionOptions),
				FPS:           sessions.FPSOptions,
				Orientations:  toStrings(sessions.OrientationOptions),
				Platforms:     toStrings(sessions.PlatformOptions),
				FFmpegOptions: ffmpeg.AvailableOptions(),
			},
		}, nil
	})
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
