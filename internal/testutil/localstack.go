package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

// localStackImage is the LocalStack image used by integration tests.
const localStackImage = "localstack/localstack:3.8"

// LocalStack is a running LocalStack container with an S3 client.
type LocalStack struct {
	// Client is an S3 client using path-style addressing against the container
	Client *s3.Client

	// Endpoint is the base URL of the container's edge port
	Endpoint string
}

// StartLocalStack starts a LocalStack container for the duration of the test.
// It is skipped in -short mode.
func StartLocalStack(t *testing.T) *LocalStack {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping LocalStack test in short mode")
	}

	ctx := context.Background()
	container, err := localstack.Run(ctx,
		localStackImage,
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_localstack/health").
				WithPort("4566").
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("start LocalStack: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate LocalStack: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("LocalStack host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		t.Fatalf("LocalStack port: %v", err)
	}
	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{AccessKeyID: "test", SecretAccessKey: "test"}, nil
			})),
	)
	if err != nil {
		t.Fatalf("load AWS config: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &LocalStack{Client: client, Endpoint: endpoint}
}

// CreateBucket creates a bucket named after the test.
func (l *LocalStack) CreateBucket(t *testing.T) string {
	t.Helper()
	name := strings.ToLower(strings.NewReplacer("/", "-", "_", "-").Replace(t.Name()))
	name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano()%1_000_000)
	if len(name) > 63 {
		name = name[len(name)-63:]
	}
	name = strings.Trim(name, "-")

	_, err := l.Client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		t.Fatalf("create bucket %s: %v", name, err)
	}
	return name
}
