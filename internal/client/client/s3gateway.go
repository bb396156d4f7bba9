package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/logging"
	"github.com/dmitrijs2005/keepsync/internal/timex"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3API is the subset of *s3.Client used by S3Gateway.
type S3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Config locates the bucket. Endpoint is only needed for S3-compatible
// stores such as MinIO, which also get path-style addressing.
type S3Config struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Client builds an SDK client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// s3Object is the stored form of one record.
type s3Object struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Deleted    bool            `json:"deleted,omitempty"`
	ServerTime int64           `json:"server_time"`
}

// DefaultClockSkew is how far behind the high-water mark Pull looks by default.
const DefaultClockSkew = 5 * time.Minute

// S3Gateway stores each record as <prefix>/<collection>/<id>.json. The
// object key doubles as the record's remote id. Server time is the pushing
// client's clock, kept strictly increasing within the process.
//
// Clocks of different clients disagree, so a change can be stamped earlier
// than one already pulled. Pull therefore returns everything newer than
// since minus the skew window; changes the caller has already applied come
// back again and are expected to be skipped by their server time.
type S3Gateway struct {
	api    S3API
	bucket string
	prefix string
	skew   time.Duration
	logger logging.Logger

	mu   sync.Mutex
	last int64
	now  func() time.Time
}

type S3Option func(*S3Gateway)

// WithClockSkew sets the window Pull re-reads below since. Zero trusts the
// pushing clocks completely.
func WithClockSkew(d time.Duration) S3Option {
	return func(g *S3Gateway) { g.skew = d }
}

func NewS3Gateway(api S3API, bucket, prefix string, logger logging.Logger, opts ...S3Option) *S3Gateway {
	g := &S3Gateway{
		api:    api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		skew:   DefaultClockSkew,
		logger: logger.With("module", "s3_gateway"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *S3Gateway) Close() error {
	return nil
}

func (g *S3Gateway) collectionPrefix(collection string) string {
	return path.Join(g.prefix, collection) + "/"
}

func (g *S3Gateway) key(collection, id string) string {
	return g.collectionPrefix(collection) + id + ".json"
}

func (g *S3Gateway) serverTime() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := timex.ToMicros(g.now())
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	return ts
}

func (g *S3Gateway) Ping(ctx context.Context) error {
	_, err := g.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(g.bucket)})
	return mapS3Error(err)
}

func (g *S3Gateway) Push(ctx context.Context, rec *models.Record) (models.PushResult, error) {
	obj := s3Object{
		ID:         rec.ID,
		Collection: rec.Collection,
		Payload:    rec.Payload,
		Deleted:    rec.Deleted,
		ServerTime: g.serverTime(),
	}
	if rec.Deleted {
		obj.Payload = nil
	}
	body, err := json.Marshal(obj)
	if err != nil {
		return models.PushResult{}, fmt.Errorf("%w: encode %s: %w", common.ErrRemoteRejected, rec.ID, err)
	}

	key := g.key(rec.Collection, rec.ID)
	_, err = g.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return models.PushResult{}, mapS3Error(err)
	}

	return models.PushResult{ServerID: key, ServerTime: timex.FromMicros(obj.ServerTime)}, nil
}

// Pull reads every object of the collection and keeps those newer than since
// minus the skew window.
func (g *S3Gateway) Pull(ctx context.Context, collection string, since time.Time) ([]models.RemoteChange, error) {
	var cursor int64
	if !since.IsZero() {
		cursor = timex.ToMicros(since.Add(-g.skew))
	}

	var changes []models.RemoteChange
	p := s3.NewListObjectsV2Paginator(g.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(g.collectionPrefix(collection)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error(err)
		}
		for _, item := range page.Contents {
			key := aws.ToString(item.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			obj, err := g.get(ctx, key)
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if obj.ServerTime <= cursor {
				continue
			}
			changes = append(changes, models.RemoteChange{
				ID:         obj.ID,
				Collection: collection,
				RemoteID:   key,
				Payload:    obj.Payload,
				Deleted:    obj.Deleted,
				ServerTime: timex.FromMicros(obj.ServerTime),
			})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].ServerTime.Before(changes[j].ServerTime) })
	return changes, nil
}

func (g *S3Gateway) get(ctx context.Context, key string) (*s3Object, error) {
	out, err := g.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(g.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, common.ErrorNotFound
		}
		return nil, mapS3Error(err)
	}
	defer out.Body.Close()

	var obj s3Object
	if err := json.NewDecoder(out.Body).Decode(&obj); err != nil {
		g.logger.Warn(ctx, "skipping unreadable object", "key", key, "error", err)
		return nil, common.ErrorNotFound
	}
	return &obj, nil
}

// mapS3Error sorts SDK failures into rejected (client-side 4xx) and
// transient (everything else, including no response at all).
func mapS3Error(err error) error {
	if err == nil {
		return nil
	}

	code := "request failed"
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}

	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		sc := withStatus.HTTPStatusCode()
		if sc >= 400 && sc < 500 && sc != http.StatusRequestTimeout && sc != http.StatusTooManyRequests {
			return fmt.Errorf("%w: s3 %s (%d): %w", common.ErrRemoteRejected, code, sc, err)
		}
		return fmt.Errorf("%w: s3 %s (%d): %w", common.ErrTransientIO, code, sc, err)
	}
	return fmt.Errorf("%w: %w: s3 %s: %w", common.ErrNetworkUnavailable, common.ErrTransientIO, code, err)
}
