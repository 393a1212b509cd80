package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// API is the subset of *s3.Client used here.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3FileSystem implements fsx.FileSystem on an S3 bucket. Paths are keys
// relative to prefix.
type S3FileSystem struct {
	client API
	bucket string
	prefix string
}

// NewS3FileSystem creates a file system rooted at prefix in bucket.
func NewS3FileSystem(client API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (sfs *S3FileSystem) key(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if sfs.prefix == "" {
		return p
	}
	if p == "" {
		return sfs.prefix
	}
	return sfs.prefix + "/" + p
}

func (sfs *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	rc, err := sfs.ReadFileStream(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fsx.ReadFailed(p, err)
	}
	return data, nil
}

func (sfs *S3FileSystem) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := sfs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(sfs.bucket),
		Key:    aws.String(sfs.key(p)),
	})
	if err != nil {
		return nil, readError(p, err)
	}
	return out.Body, nil
}

func (sfs *S3FileSystem) Stat(ctx context.Context, p string) (fsx.FileInfo, error) {
	out, err := sfs.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(sfs.bucket),
		Key:    aws.String(sfs.key(p)),
	})
	if err != nil {
		return fsx.FileInfo{}, readError(p, err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" || contentType == "binary/octet-stream" {
		contentType = detectContentType(p)
	}
	return fsx.FileInfo{
		Name:        path.Base(p),
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		ContentType: contentType,
		Metadata:    out.Metadata,
	}, nil
}

// List returns the objects and common prefixes directly under p.
func (sfs *S3FileSystem) List(ctx context.Context, p string) ([]fsx.FileInfo, error) {
	prefix := sfs.key(p)
	if prefix != "" {
		prefix += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(sfs.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(sfs.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var infos []fsx.FileInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fsx.ReadFailed(p, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			infos = append(infos, fsx.FileInfo{Name: name, IsDir: true})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue
			}
			infos = append(infos, fsx.FileInfo{
				Name:        name,
				Size:        aws.ToInt64(obj.Size),
				ModTime:     aws.ToTime(obj.LastModified),
				ContentType: detectContentType(name),
			})
		}
	}
	return infos, nil
}

func (sfs *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	if _, err := sfs.Stat(ctx, p); err != nil {
		if errx.IsCode(err, fsx.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (sfs *S3FileSystem) WriteFile(ctx context.Context, p string, data []byte) error {
	_, err := sfs.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(sfs.bucket),
		Key:         aws.String(sfs.key(p)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(detectContentType(p)),
	})
	if err != nil {
		return fsx.WriteFailed(p, err)
	}
	return nil
}

// WriteFileStream buffers r since PutObject needs a seekable body to sign.
func (sfs *S3FileSystem) WriteFileStream(ctx context.Context, p string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fsx.WriteFailed(p, err)
	}
	return sfs.WriteFile(ctx, p, data)
}

func readError(p string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fsx.NotFound(p)
	}
	return fsx.ReadFailed(p, err)
}

func detectContentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
