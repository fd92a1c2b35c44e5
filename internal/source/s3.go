package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"DocLoader/internal/config"
)

// S3 reads the objects directly under a bucket prefix. Credentials come from
// the default AWS chain.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 builds a source from an s3://bucket/prefix location.
func NewS3(ctx context.Context, location string, cfg config.Config) (*S3, error) {
	bucket, prefix, err := parseS3(location)
	if err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3PathStyle {
			o.UsePathStyle = true
		}
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	return &S3{client: client, bucket: bucket, prefix: prefix}, nil
}

func parseS3(location string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(location, "s3://")
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 location %q has no bucket", location)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return bucket, prefix, nil
}

// List skips "directory" keys, dotfiles and anything in a deeper prefix.
func (s *S3) List(ctx context.Context) ([]Entry, error) {
	var out []Entry
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.prefix),
		Delimiter: aws.String("/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(key, s.prefix)
			if rel == "" || strings.Contains(rel, "/") || strings.HasPrefix(path.Base(rel), ".") {
				continue
			}
			out = append(out, Entry{Key: key, Name: ResourceName(key)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *S3) Open(ctx context.Context, e Entry) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(e.Key)})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}
