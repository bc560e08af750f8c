package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"vigil/internal/api"
	"vigil/internal/daemon"
	"vigil/internal/engine"
	"vigil/internal/logging"
	"vigil/internal/store"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Vigil", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String("impact", "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun vigil stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func convertDetection(resp api.DetectionResponse) IngestResponse {
	return IngestResponse{
		Accepted:   resp.Accepted,
		Category:   resp.Category,
		Confidence: resp.Confidence,
		Reasoning:  resp.Reasoning,
		Warning:    resp.Warning,
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	resp.APIBind = status.APIBind
	resp.Engine = api.FromStatusSummary(status.Engine)
	resp.WarningCounts = api.FromWarningCounts(status.WarningCounts)
	resp.Preflight = api.FromPreflight(status.Preflight)
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	result, err := s.daemon.TailLog(req.Offset, req.Limit)
	if err != nil {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) Ingest(req IngestRequest, resp *IngestResponse) error {
	result, err := s.daemon.Ingest(s.ctx, req.Event)
	if err != nil {
		return err
	}
	*resp = convertDetection(api.FromProcessResult(result))
	return nil
}

func (s *service) Scene(req SceneRequest, resp *SceneResponse) error {
	err := s.daemon.IngestScene(s.ctx, engine.SceneEvent{
		ID:    req.ID,
		Type:  req.Type,
		Start: req.Start,
		End:   req.End,
	})
	if err != nil {
		return err
	}
	resp.Accepted = true
	return nil
}

func (s *service) Feedback(req FeedbackRequest, resp *FeedbackResponse) error {
	err := s.daemon.Feedback(s.ctx, engine.FeedbackRequest{
		Category:    req.Category,
		Type:        req.Type,
		Outcome:     req.Outcome,
		WarningID:   req.WarningID,
		Confidence:  req.Confidence,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		return err
	}
	resp.Applied = true
	return nil
}

func (s *service) WarningsList(req WarningsListRequest, resp *WarningsListResponse) error {
	filter := store.WarningFilter{Limit: req.Limit}
	if parsed, ok := trigger.ParseCategory(req.Category); ok {
		filter.Category = parsed
	}
	if trimmed := strings.ToLower(strings.TrimSpace(req.Status)); trimmed != "" {
		filter.Status = warnings.Status(trimmed)
	}
	list, err := s.daemon.ListWarnings(s.ctx, filter)
	if err != nil {
		return err
	}
	resp.Warnings = api.FromWarnings(list)
	return nil
}

func (s *service) WarningsClear(_ WarningsClearRequest, resp *WarningsClearResponse) error {
	s.log().Debug("warning clear requested")
	removed, err := s.daemon.ClearWarnings(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("warnings cleared",
		logging.String(logging.FieldEventType, "warnings_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) Sweep(_ SweepRequest, resp *SweepResponse) error {
	s.log().Debug("dedup sweep requested")
	resp.Warnings = api.FromWarnings(s.daemon.Sweep(s.ctx))
	return nil
}

func (s *service) AttentionReset(req AttentionResetRequest, resp *AttentionResetResponse) error {
	s.log().Debug("attention reset requested", logging.Int("category_count", len(req.Categories)))
	if err := s.daemon.ResetAttention(s.ctx, req.Categories); err != nil {
		return err
	}
	resp.Reset = true
	s.log().Info("attention weights reset",
		logging.String(logging.FieldEventType, "attention_reset"),
		logging.Int("category_count", len(req.Categories)))
	return nil
}

func (s *service) FeedbackStats(_ FeedbackStatsRequest, resp *FeedbackStatsResponse) error {
	counts, err := s.daemon.FeedbackSummary(s.ctx)
	if err != nil {
		return err
	}
	resp.Counts = counts
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.SchemaVersion = health.SchemaVersion
	resp.TablesPresent = append(resp.TablesPresent, health.TablesPresent...)
	resp.MissingTables = append(resp.MissingTables, health.MissingTables...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalWarnings = health.TotalWarnings
	resp.Error = health.Error
	if err != nil {
		return err
	}
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.log().Info("shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_shutdown"))
	s.daemon.RequestShutdown()
	resp.Stopping = true
	return nil
}
