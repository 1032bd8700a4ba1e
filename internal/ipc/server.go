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

	"lodestone/internal/api"
	"lodestone/internal/daemon"
	"lodestone/internal/logging"
	"lodestone/internal/queue"
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
	if err := rpcServer.RegisterName("Lodestone", srv); err != nil {
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
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun lodestone daemon stop"))
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
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) api() *api.Service {
	return s.daemon.API()
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.LastError = status.Scheduler.LastError
	resp.QueueStats = make(map[string]int, len(status.Scheduler.QueueStats))
	for state, count := range status.Scheduler.QueueStats {
		resp.QueueStats[string(state)] = count
	}
	if status.Scheduler.LastItem != nil {
		dto := api.FromQueueItem(status.Scheduler.LastItem)
		resp.LastItem = &dto
	}
	return nil
}

func (s *service) InstallClient(req InstallClientRequest, resp *InstallClientResponse) error {
	item, err := s.api().EnqueueClientInstall(s.ctx, req.ProfileID, req.GameVersion, req.Loader, req.LoaderVersion)
	if err != nil {
		return err
	}
	resp.Item = item
	s.log().Info("client install queued",
		logging.String(logging.FieldEventType, "install_client_queued"),
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldProfileID, req.ProfileID))
	return nil
}

func (s *service) InstallContent(req InstallContentRequest, resp *InstallContentResponse) error {
	contentType, ok := queue.ParseContentType(req.ContentType)
	if !ok {
		return fmt.Errorf("unknown content type %q", req.ContentType)
	}
	items, err := s.api().EnqueueContentInstall(s.ctx, req.ProfileID, contentType, req.Refs)
	if err != nil {
		return err
	}
	resp.Items = items
	s.log().Info("content installs queued",
		logging.String(logging.FieldEventType, "install_content_queued"),
		logging.Int("item_count", len(items)),
		logging.String(logging.FieldContentType, string(contentType)),
		logging.String(logging.FieldProfileID, req.ProfileID))
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	if len(req.States) == 1 {
		state, ok := queue.ParseState(req.States[0])
		if !ok {
			return fmt.Errorf("unknown state %q", req.States[0])
		}
		items, err := s.api().ListByState(s.ctx, state, req.ProfileID)
		if err != nil {
			return err
		}
		resp.Items = items
		return nil
	}

	states := make([]queue.State, 0, len(req.States))
	for _, raw := range req.States {
		state, ok := queue.ParseState(raw)
		if !ok {
			continue
		}
		states = append(states, state)
	}
	items, err := s.daemon.ListQueue(s.ctx, states)
	if err != nil {
		return err
	}
	resp.Items = api.FromQueueItems(items)
	return nil
}

func (s *service) QueueDescribe(req QueueDescribeRequest, resp *QueueDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid queue item id %d", req.ID)
	}
	item, err := s.api().Describe(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("queue item %d not found", req.ID)
	}
	resp.Item = *item
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	item, err := s.api().Retry(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Item = item
	s.log().Info("queue item retried",
		logging.String(logging.FieldEventType, "queue_retry"),
		logging.Int64(logging.FieldItemID, req.ID))
	return nil
}

func (s *service) QueuePostpone(req QueuePostponeRequest, resp *QueuePostponeResponse) error {
	item, err := s.api().Postpone(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Item = item
	s.log().Info("queue item postponed",
		logging.String(logging.FieldEventType, "queue_postpone"),
		logging.Int64(logging.FieldItemID, req.ID))
	return nil
}

func (s *service) QueueResume(req QueueResumeRequest, resp *QueueResumeResponse) error {
	item, err := s.api().Resume(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Item = item
	s.log().Info("queue item resumed",
		logging.String(logging.FieldEventType, "queue_resume"),
		logging.Int64(logging.FieldItemID, req.ID))
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if err := s.api().Delete(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Removed = true
	s.log().Info("queue item removed",
		logging.String(logging.FieldEventType, "queue_remove"),
		logging.Int64(logging.FieldItemID, req.ID))
	return nil
}

func (s *service) QueueCancel(req QueueCancelRequest, resp *QueueCancelResponse) error {
	if err := s.api().Cancel(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Requested = true
	s.log().Info("install cancel requested",
		logging.String(logging.FieldEventType, "queue_cancel"),
		logging.Int64(logging.FieldItemID, req.ID))
	return nil
}

func (s *service) QueueClear(req QueueClearRequest, resp *QueueClearResponse) error {
	var removed int64
	var err error
	if req.State == "" {
		removed, err = s.daemon.ClearQueue(s.ctx)
	} else {
		state, ok := queue.ParseState(req.State)
		if !ok {
			return fmt.Errorf("unknown state %q", req.State)
		}
		removed, err = s.api().ClearByState(s.ctx, state)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int64("removed_count", removed))
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
	resp.TableExists = health.TableExists
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalItems = health.TotalItems
	resp.Error = health.Error
	return err
}

func (s *service) ProfileCreate(req ProfileCreateRequest, resp *ProfileCreateResponse) error {
	profile, err := s.api().CreateProfile(s.ctx, Profile{
		Name:             req.Name,
		GameVersion:      req.GameVersion,
		Loader:           req.Loader,
		LoaderVersion:    req.LoaderVersion,
		JavaArgs:         req.JavaArgs,
		ResolutionWidth:  req.ResolutionWidth,
		ResolutionHeight: req.ResolutionHeight,
	})
	if err != nil {
		return err
	}
	resp.Profile = profile
	s.log().Info("profile created",
		logging.String(logging.FieldEventType, "profile_create"),
		logging.String(logging.FieldProfileID, profile.ID))
	return nil
}

func (s *service) ProfileList(_ ProfileListRequest, resp *ProfileListResponse) error {
	profiles, err := s.api().ListProfiles(s.ctx)
	if err != nil {
		return err
	}
	resp.Profiles = profiles
	return nil
}

func (s *service) ProfileRemove(req ProfileRemoveRequest, resp *ProfileRemoveResponse) error {
	if err := s.api().DeleteProfile(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Removed = true
	s.log().Info("profile removed",
		logging.String(logging.FieldEventType, "profile_remove"),
		logging.String(logging.FieldProfileID, req.ID))
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
