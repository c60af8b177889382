package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/relaycast/internal/api/models"
	"github.com/smazurov/relaycast/internal/ffmpeg"
	"github.com/smazurov/relaycast/internal/metrics"
	"github.com/smazurov/relaycast/internal/sessions"
)

// registerSessionRoutes registers all session-related endpoints.
func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/api/sessions",
		Summary:     "List Sessions",
		Description: "Get all sessions in creation order",
		Tags:        []string{"sessions"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.SessionListResponse, error) {
		list := s.sessions.List()
		data := make([]models.SessionData, len(list))
		for i, sess := range list {
			data[i] = toSessionData(sess)
		}
		return &models.SessionListResponse{
			Body: models.SessionListData{
				Sessions: data,
				Count:    len(data),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          "/api/sessions",
		Summary:       "Create Session",
		Description:   "Create a stopped session with default profile and no source or key",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{401, 422},
		Security:      withAuth(),
	}, func(_ context.Context, input *models.SessionCreateRequest) (*models.SessionResponse, error) {
		sess := s.sessions.Create(input.Body.Title)
		return &models.SessionResponse{Body: toSessionData(sess)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}",
		Summary:     "Get Session",
		Description: "Get the current snapshot of a session",
		Tags:        []string{"sessions"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SessionIDInput) (*models.SessionResponse, error) {
		sess, err := s.sessions.Get(input.SessionID)
		if err != nil {
			return nil, mapSessionError(err)
		}
		return &models.SessionResponse{Body: toSessionData(sess)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-session",
		Method:      http.MethodPatch,
		Path:        "/api/sessions/{session_id}",
		Summary:     "Update Session",
		Description: "Change source, key, platform or profile of a stopped session. All fields apply or none do.",
		Tags:        []string{"sessions"},
		Errors:      []int{401, 404, 409, 422},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SessionUpdateRequest) (*models.SessionResponse, error) {
		sess, err := s.sessions.Update(input.SessionID, toConfigUpdate(input.Body))
		if err != nil {
			return nil, mapSessionError(err)
		}
		return &models.SessionResponse{Body: toSessionData(sess)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-session",
		Method:      http.MethodDelete,
		Path:        "/api/sessions/{session_id}",
		Summary:     "Delete Session",
		Description: "Delete a session that is not running, together with its log",
		Tags:        []string{"sessions"},
		Errors:      []int{401, 404, 409},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SessionIDInput) (*struct{}, error) {
		if err := s.sessions.Delete(input.SessionID); err != nil {
			return nil, mapSessionError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-session",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{session_id}/start",
		Summary:     "Start Session",
		Description: "Resolve the source if remote and spawn ffmpeg",
		Tags:        []string{"sessions"},
		Errors:      []int{401, 404, 409, 422, 502},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.SessionIDInput) (*models.SessionResponse, error) {
		if err := s.sessions.Start(ctx, input.SessionID); err != nil {
			return nil, mapSessionError(err)
		}
		return s.sessionResponse(input.SessionID)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-session",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{session_id}/stop",
		Summary:     "Stop Session",
		Description: "Interrupt the child, escalate to kill after the timeout. Stopping a stopped session is a no-op.",
		Tags:        []string{"sessions"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.SessionIDInput) (*models.SessionResponse, error) {
		if err := s.sessions.Stop(ctx, input.SessionID); err != nil {
			return nil, mapSessionError(err)
		}
		return s.sessionResponse(input.SessionID)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-session-logs",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}/logs",
		Summary:     "Get Session Logs",
		Description: "Get the bounded session log, oldest first",
		Tags:        []string{"sessions"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SessionIDInput) (*models.SessionLogsResponse, error) {
		lines, err := s.sessions.Logs(input.SessionID)
		if err != nil {
			return nil, mapSessionError(err)
		}
		data := make([]models.LogLineData, len(lines))
		for i, l := range lines {
			data[i] = models.LogLineData{
				Time:  l.Time,
				Level: l.Level,
				Text:  l.Text,
				Line:  l.String(),
			}
		}
		return &models.SessionLogsResponse{
			Body: models.SessionLogsData{
				SessionID: input.SessionID,
				Lines:     data,
				Count:     len(data),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-session-command",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}/command",
		Summary:     "Get FFmpeg Command",
		Description: "Get the ffmpeg command a start would run, with the destination key redacted",
		Tags:        []string{"sessions"},
		Errors:      []int{401, 404, 422},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SessionIDInput) (*models.FFmpegCommandResponse, error) {
		argv, err := s.sessions.Command(input.SessionID)
		if err != nil {
			return nil, mapSessionError(err)
		}
		return &models.FFmpegCommandResponse{
			Body: models.FFmpegCommandData{
				SessionID: input.SessionID,
				Command:   ffmpeg.QuoteArgs(argv),
				Args:      argv,
			},
		}, nil
	})
}

func (s *Server) sessionResponse(id string) (*models.SessionResponse, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, mapSessionError(err)
	}
	return &models.SessionResponse{Body: toSessionData(sess)}, nil
}

// toSessionData converts a snapshot to its API form. The destination key
// never leaves the process; only its presence is reported.
func toSessionData(sess sessions.Session) models.SessionData {
	data := models.SessionData{
		ID:       sess.ID,
		Title:    sess.Title,
		Source:   sess.Source,
		HasKey:   sess.HasKey(),
		Platform: string(sess.Platform),
		Profile: models.ProfileData{
			BitrateKbps: sess.Profile.BitrateKbps,
			Resolution:  string(sess.Profile.Resolution),
			FPS:         sess.Profile.FPS,
			Orientation: string(sess.Profile.Orientation),
			Loop:        sess.Profile.Loop,
		},
		Status:     string(sess.Status),
		PID:        sess.PID,
		HasProcess: sess.HasProcess,
		LastError:  sess.LastError,
		Restarts:   sess.Restarts,
		CreatedAt:  sess.CreatedAt,
		UpdatedAt:  sess.UpdatedAt,
	}
	if !sess.StartedAt.IsZero() {
		started := sess.StartedAt
		data.StartedAt = &started
	}
	if sess.Status == sessions.StatusLive {
		if p := metrics.GetProgress(sess.ID); p != nil {
			data.Progress = &models.ProgressData{
				Frame:       p.Frame,
				FPS:         p.FPS,
				BitrateKbps: p.BitrateKbps,
				Speed:       p.Speed,
			}
		}
	}
	return data
}

func toConfigUpdate(body models.SessionUpdateData) sessions.ConfigUpdate {
	return sessions.ConfigUpdate{
		Title:          body.Title,
		Source:         body.Source,
		DestinationKey: body.DestinationKey,
		Platform:       convertPtr[sessions.Platform](body.Platform),
		BitrateKbps:    body.BitrateKbps,
		Resolution:     convertPtr[sessions.Resolution](body.Resolution),
		FPS:            body.FPS,
		Orientation:    convertPtr[sessions.Orientation](body.Orientation),
		Loop:           body.Loop,
	}
}

func convertPtr[T ~string](v *string) *T {
	if v == nil {
		return nil
	}
	t := T(*v)
	return &t
}
