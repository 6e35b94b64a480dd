package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/models"
	"github.com/wfunc/blockoni/persistence"
	"github.com/wfunc/blockoni/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr. Services are added with Register.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register publishes the exported methods of service.
func (s *Server) Register(service any) error {
	return s.rpc.Register(service)
}

// Addr is the bound listen address.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// MatchService exposes the match archive over net/rpc.
type MatchService struct {
	matches *services.MatchService
}

func NewMatchService(ms *services.MatchService) *MatchService {
	return &MatchService{matches: ms}
}

type StatsArgs struct{}

type StatsReply struct {
	Stats persistence.ResultStats
}

// GetResultStats follows the net/rpc signature: exported args, pointer reply,
// error result.
func (s *MatchService) GetResultStats(_ *StatsArgs, reply *StatsReply) error {
	stats, err := s.matches.GetResultStats()
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}

type GetMatchArgs struct {
	MatchID string
}

type GetMatchReply struct {
	Record models.MatchRecord
}

func (s *MatchService) GetMatch(args *GetMatchArgs, reply *GetMatchReply) error {
	rec, err := s.matches.GetMatch(args.MatchID)
	if err != nil {
		return err
	}
	reply.Record = *rec
	return nil
}

type RecentArgs struct {
	RoomID string
	Limit  int
}

type RecentReply struct {
	Records []models.MatchRecord
}

func (s *MatchService) RecentMatches(args *RecentArgs, reply *RecentReply) error {
	recs, err := s.matches.RecentMatches(args.RoomID, args.Limit)
	if err != nil {
		return err
	}
	for _, r := range recs {
		reply.Records = append(reply.Records, *r)
	}
	return nil
}
