package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket. Listing pages through keys in lexical
// order, pageSize keys at a time.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int
	putErr   error
	headErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), pageSize: 2}
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func newTestS3Gateway(api S3API) *S3Gateway {
	g := NewS3Gateway(api, "bucket", "/keepsync/", logging.Nop(), WithClockSkew(0))
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }
	return g
}

func TestS3Gateway_PushWritesObjectPerRecord(t *testing.T) {
	api := newFakeS3()
	g := newTestS3Gateway(api)

	res, err := g.Push(context.Background(), &models.Record{ID: "r1", Collection: "tags", Payload: json.RawMessage(`{"name":"go"}`)})
	require.NoError(t, err)
	assert.Equal(t, "keepsync/tags/r1.json", res.ServerID)

	raw, ok := api.objects["keepsync/tags/r1.json"]
	require.True(t, ok)
	var obj s3Object
	require.NoError(t, json.Unmarshal(raw, &obj))
	assert.Equal(t, "r1", obj.ID)
	assert.JSONEq(t, `{"name":"go"}`, string(obj.Payload))
	assert.Equal(t, res.ServerTime.UnixMicro(), obj.ServerTime)
}

func TestS3Gateway_ServerTimeStrictlyIncreases(t *testing.T) {
	g := newTestS3Gateway(newFakeS3())
	ctx := context.Background()

	a, err := g.Push(ctx, &models.Record{ID: "a", Collection: "tags", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	b, err := g.Push(ctx, &models.Record{ID: "b", Collection: "tags", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)

	assert.True(t, b.ServerTime.After(a.ServerTime))
}

func TestS3Gateway_PullFiltersBySinceAndSorts(t *testing.T) {
	api := newFakeS3()
	g := newTestS3Gateway(api)
	ctx := context.Background()

	var times []time.Time
	for _, id := range []string{"c", "a", "b"} {
		res, err := g.Push(ctx, &models.Record{ID: id, Collection: "tags", Payload: json.RawMessage(`{}`)})
		require.NoError(t, err)
		times = append(times, res.ServerTime)
	}
	_, err := g.Push(ctx, &models.Record{ID: "x", Collection: "articles", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	api.objects["keepsync/tags/readme.txt"] = []byte("ignored")

	all, err := g.Pull(ctx, "tags", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{all[0].ID, all[1].ID, all[2].ID})

	newer, err := g.Pull(ctx, "tags", times[0])
	require.NoError(t, err)
	require.Len(t, newer, 2)
	assert.Equal(t, "a", newer[0].ID)
	assert.Equal(t, "keepsync/tags/a.json", newer[0].RemoteID)
}

func TestS3Gateway_PullSeesChangesStampedBySlowerClock(t *testing.T) {
	api := newFakeS3()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ahead := NewS3Gateway(api, "bucket", "keepsync", logging.Nop())
	ahead.now = func() time.Time { return base.Add(time.Minute) }
	behind := NewS3Gateway(api, "bucket", "keepsync", logging.Nop())
	behind.now = func() time.Time { return base }

	_, err := ahead.Push(ctx, &models.Record{ID: "a", Collection: "tags", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)

	reader := NewS3Gateway(api, "bucket", "keepsync", logging.Nop())
	first, err := reader.Pull(ctx, "tags", time.Time{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	hwm := first[0].ServerTime

	_, err = behind.Push(ctx, &models.Record{ID: "b", Collection: "tags", Payload: json.RawMessage(`{"late":true}`)})
	require.NoError(t, err)

	changes, err := reader.Pull(ctx, "tags", hwm)
	require.NoError(t, err)
	ids := make([]string, 0, len(changes))
	for _, ch := range changes {
		ids = append(ids, ch.ID)
	}
	assert.Equal(t, []string{"b", "a"}, ids, "sorted by server time, already seen changes included")
	assert.True(t, changes[0].ServerTime.Before(hwm))

	strict := NewS3Gateway(api, "bucket", "keepsync", logging.Nop(), WithClockSkew(0))
	changes, err = strict.Pull(ctx, "tags", hwm)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestS3Gateway_TombstoneRoundTrip(t *testing.T) {
	g := newTestS3Gateway(newFakeS3())
	ctx := context.Background()

	_, err := g.Push(ctx, &models.Record{ID: "a", Collection: "tags", Payload: json.RawMessage(`{"name":"x"}`), Deleted: true})
	require.NoError(t, err)

	changes, err := g.Pull(ctx, "tags", time.Time{})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Deleted)
	assert.Empty(t, changes[0].Payload)
}

func httpErr(code int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: code}},
		Err:      errors.New("api failure"),
	}
}

func TestMapS3Error(t *testing.T) {
	require.NoError(t, mapS3Error(nil))
	require.ErrorIs(t, mapS3Error(httpErr(http.StatusForbidden)), common.ErrRemoteRejected)
	require.ErrorIs(t, mapS3Error(httpErr(http.StatusBadRequest)), common.ErrRemoteRejected)
	require.ErrorIs(t, mapS3Error(httpErr(http.StatusTooManyRequests)), common.ErrTransientIO)
	require.ErrorIs(t, mapS3Error(httpErr(http.StatusRequestTimeout)), common.ErrTransientIO)
	require.ErrorIs(t, mapS3Error(httpErr(http.StatusServiceUnavailable)), common.ErrTransientIO)

	noResponse := mapS3Error(errors.New("dial tcp: connection refused"))
	require.ErrorIs(t, noResponse, common.ErrNetworkUnavailable)
	require.ErrorIs(t, noResponse, common.ErrTransientIO)
}

func TestS3Gateway_PushAndPingMapErrors(t *testing.T) {
	api := newFakeS3()
	api.putErr = httpErr(http.StatusForbidden)
	api.headErr = httpErr(http.StatusServiceUnavailable)
	g := newTestS3Gateway(api)

	_, err := g.Push(context.Background(), &models.Record{ID: "a", Collection: "tags", Payload: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, common.ErrRemoteRejected)
	require.ErrorIs(t, g.Ping(context.Background()), common.ErrTransientIO)
}

func TestNewS3Client_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var got s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&got)
		}
		return &s3.Client{}
	}

	_, err := NewS3Client(context.Background(), S3Config{
		Bucket: "b", Endpoint: "http://127.0.0.1:9000", Region: "eu-west-1", AccessKey: "u", SecretKey: "p",
	})
	require.NoError(t, err)
	require.NotNil(t, got.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *got.BaseEndpoint)
	assert.True(t, got.UsePathStyle)
}

func TestNewS3Client_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Client(context.Background(), S3Config{Region: "x"})
	require.ErrorContains(t, err, "load aws config")
}
