package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service exposed by the answering engine.
const ServiceName = "balliq.engine.v1.AnsweringEngine"

const (
	loginMethod   = "/" + ServiceName + "/Login"
	respondMethod = "/" + ServiceName + "/Respond"
)

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
	errNotServing               = errors.New("engine is not serving")
)

// GrpcClient talks to the answering engine over gRPC.
type GrpcClient struct {
	conn           *grpc.ClientConn
	health         healthpb.HealthClient
	addr           string
	requestTimeout time.Duration
	logger         *slog.Logger
}

// GrpcClientConfig holds configuration for the gRPC client.
type GrpcClientConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	RequestTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
}

// DefaultGrpcClientConfig returns default configuration.
func DefaultGrpcClientConfig() GrpcClientConfig {
	return GrpcClientConfig{
		Address:          "localhost:50051",
		ConnectTimeout:   5 * time.Second,
		RequestTimeout:   60 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// NewGrpcClient connects to the answering engine at addr with default settings.
func NewGrpcClient(addr string, logger *slog.Logger) (*GrpcClient, error) {
	cfg := DefaultGrpcClientConfig()
	if addr != "" {
		cfg.Address = addr
	}
	return NewGrpcClientWithConfig(cfg, logger)
}

// NewGrpcClientWithConfig connects to the answering engine and waits until the
// connection is ready, so a bad endpoint fails at startup.
func NewGrpcClientWithConfig(cfg GrpcClientConfig, logger *slog.Logger, opts ...grpc.DialOption) (*GrpcClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kacp := keepalive.ClientParameters{
		Time:                cfg.KeepaliveTime,
		Timeout:             cfg.KeepaliveTimeout,
		PermitWithoutStream: false,
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(kacp),
	}, opts...)

	// Build client connection (no network I/O yet).
	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to answering engine at %s: %w", cfg.Address, err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close gRPC connection after readiness failure", "error", closeErr)
		}
		return nil, fmt.Errorf("answering engine at %s not ready: %w", cfg.Address, err)
	}

	logger.Info("Connected to answering engine", "address", cfg.Address)

	return &GrpcClient{
		conn:           conn,
		health:         healthpb.NewHealthClient(conn),
		addr:           cfg.Address,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

// Close closes the gRPC connection.
func (c *GrpcClient) Close() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("failed to close gRPC connection", "error", err)
		}
	}
}

// Health checks the engine through the standard gRPC health service.
func (c *GrpcClient) Health(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", errNotServing, resp.GetStatus())
	}
	return nil
}

func (c *GrpcClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

// Login binds the engine session to a user.
func (c *GrpcClient) Login(ctx context.Context, userID string, contextVersion int) error {
	in, err := structpb.NewStruct(map[string]any{
		"user_id":         userID,
		"context_version": contextVersion,
	})
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.conn.Invoke(ctx, loginMethod, in, &emptypb.Empty{}); err != nil {
		c.logger.Warn("Engine login failed", "error", err, "user_id", userID)
		return fmt.Errorf("engine login: %w", err)
	}
	return nil
}

// Respond forwards one user message and returns the complete answer.
func (c *GrpcClient) Respond(ctx context.Context, req Request) (string, error) {
	in, err := structpb.NewStruct(map[string]any{
		"customer_input": req.CustomerInput,
		"user_id":        req.UserID,
	})
	if err != nil {
		return "", fmt.Errorf("build respond request: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.logger.Debug("Forwarding message to engine", "user_id", req.UserID, "message_length", len(req.CustomerInput))

	out := &wrapperspb.StringValue{}
	if err := c.conn.Invoke(ctx, respondMethod, in, out); err != nil {
		return "", fmt.Errorf("engine respond: %w", err)
	}
	return out.GetValue(), nil
}
