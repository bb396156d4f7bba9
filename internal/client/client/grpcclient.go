package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/logging"
	pb "github.com/dmitrijs2005/keepsync/internal/proto"
	"github.com/dmitrijs2005/keepsync/internal/timex"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const (
	defaultCallTimeout = 10 * time.Second
	defaultPageSize    = 500
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.RecordServiceClient
	health      healthpb.HealthClient
	timeout     time.Duration
	pageSize    int
	dialOpts    []grpc.DialOption
	logger      logging.Logger
}

type GRPCOption func(*GRPCClient)

// WithCallTimeout bounds every RPC; the default is 10s.
func WithCallTimeout(d time.Duration) GRPCOption {
	return func(c *GRPCClient) { c.timeout = d }
}

// WithPageSize sets how many changes Pull asks for per page.
func WithPageSize(n int) GRPCOption {
	return func(c *GRPCClient) { c.pageSize = n }
}

// WithDialOptions appends extra dial options, e.g. a bufconn dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) GRPCOption {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func NewGRPCClient(endpointURL string, logger logging.Logger, opts ...GRPCOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		timeout:     defaultCallTimeout,
		pageSize:    defaultPageSize,
		logger:      logger.With("module", "grpc_client"),
	}
	for _, o := range opts {
		o(c)
	}
	if err := c.initGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) initGRPCClient() error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.loggingInterceptor),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(c.endpointURL, dialOpts...)
	if err != nil {
		return fmt.Errorf("grpc client for %s: %w", c.endpointURL, err)
	}
	c.conn = conn
	c.client = pb.NewRecordServiceClient(conn)
	c.health = healthpb.NewHealthClient(conn)
	return nil
}

func (c *GRPCClient) loggingInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)
	c.logger.Debug(ctx, "rpc", "method", method, "code", status.Code(err).String(), "elapsed", time.Since(start))
	return err
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Ping asks the health service whether the record service is serving.
func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: common.RecordServiceName})
	if err != nil {
		return c.mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: service status %s", common.ErrNetworkUnavailable, resp.GetStatus())
	}
	return nil
}

func (c *GRPCClient) Push(ctx context.Context, rec *models.Record) (models.PushResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &pb.PushRequest{Record: &pb.Record{
		Id:         rec.ID,
		Collection: rec.Collection,
		RemoteId:   rec.RemoteID,
		Payload:    rec.Payload,
		Deleted:    rec.Deleted,
	}}
	if rec.Deleted {
		req.Record.Payload = nil
	}

	resp, err := c.client.Push(ctx, req)
	if err != nil {
		return models.PushResult{}, c.mapError(err)
	}
	return models.PushResult{ServerID: resp.GetServerId(), ServerTime: timex.FromMicros(resp.GetServerTime())}, nil
}

// Pull pages through the remote changes until the server has no more.
func (c *GRPCClient) Pull(ctx context.Context, collection string, since time.Time) ([]models.RemoteChange, error) {
	var cursor int64
	if !since.IsZero() {
		cursor = timex.ToMicros(since)
	}

	var changes []models.RemoteChange
	for {
		page, err := c.pullPage(ctx, collection, cursor)
		if err != nil {
			return nil, err
		}
		for _, r := range page.GetChanges() {
			changes = append(changes, models.RemoteChange{
				ID:         r.GetId(),
				Collection: r.GetCollection(),
				RemoteID:   r.GetRemoteId(),
				Payload:    r.GetPayload(),
				Deleted:    r.GetDeleted(),
				ServerTime: timex.FromMicros(r.GetServerTime()),
			})
		}
		if !page.GetHasMore() || len(page.GetChanges()) == 0 {
			return changes, nil
		}
		cursor = page.Changes[len(page.Changes)-1].GetServerTime()
	}
}

func (c *GRPCClient) pullPage(ctx context.Context, collection string, since int64) (*pb.PullResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Pull(ctx, &pb.PullRequest{Collection: collection, Since: since, Limit: int32(c.pageSize)})
	if err != nil {
		return nil, c.mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", common.ErrTransientIO, err)
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%w: %w: %s", common.ErrNetworkUnavailable, common.ErrTransientIO, st.Message())
	case codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return fmt.Errorf("%w: %s", common.ErrTransientIO, st.Message())
	case codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists,
		codes.PermissionDenied, codes.NotFound, codes.OutOfRange:
		return fmt.Errorf("%w: %s", common.ErrRemoteRejected, st.Message())
	default:
		return fmt.Errorf("%w: rpc error: %w", common.ErrTransientIO, err)
	}
}
