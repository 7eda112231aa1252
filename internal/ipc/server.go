package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"cineforge/internal/daemon"
	"cineforge/internal/logging"
	"cineforge/internal/models"
	"cineforge/internal/production"
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
	if err := rpcServer.RegisterName("Cineforge", srv); err != nil {
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
				s.logger.Warn("accept failed", logging.Error(err))
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
			logging.Error(err))
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
	return logging.WithComponent(s.logger, "ipc")
}

func convertWatch(state production.State) WatchSummary {
	return WatchSummary{
		ProjectID:       state.ProjectID,
		Title:           state.Title,
		Status:          string(state.Status),
		StageIndex:      state.StageIndex,
		StageCount:      models.StageCount(),
		StagePercent:    state.StagePercent,
		CompletedClips:  state.CompletedClips,
		ExpectedClips:   state.ExpectedClips,
		StitchRequested: state.StitchRequested,
		FinalVideoURL:   state.FinalVideoURL,
		ErrorMessage:    state.ErrorMessage,
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.UserEmail = status.UserEmail
	resp.WatchCount = status.WatchCount
	resp.LastError = status.LastError
	resp.LockPath = status.LockPath
	resp.MirrorDBPath = status.MirrorDBPath
	resp.PID = status.PID
	return nil
}

func (s *service) WatchList(_ WatchListRequest, resp *WatchListResponse) error {
	states := s.daemon.Watches()
	resp.Watches = make([]WatchSummary, 0, len(states))
	for _, state := range states {
		resp.Watches = append(resp.Watches, convertWatch(state))
	}
	return nil
}

func (s *service) ProductionStatus(req ProductionStatusRequest, resp *ProductionStatusResponse) error {
	if req.ProjectID == "" {
		return errors.New("production status requires a project id")
	}
	state, events, err := s.daemon.ProductionStatus(req.ProjectID)
	if err != nil {
		return err
	}
	resp.Watch = convertWatch(state)
	resp.Events = make([]EventLine, 0, len(events))
	for _, event := range events {
		resp.Events = append(resp.Events, EventLine{At: event.At, Message: event.Message})
	}
	return nil
}

func (s *service) Watch(req WatchRequest, resp *WatchResponse) error {
	if req.ProjectID == "" {
		return errors.New("watch requires a project id")
	}
	s.log().Debug("watch requested", logging.String(logging.FieldProjectID, req.ProjectID))
	added, message, err := s.daemon.Watch(s.ctx, req.ProjectID)
	if err != nil {
		return err
	}
	resp.Added = added
	resp.Message = message
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC")
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
