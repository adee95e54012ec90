package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// ObjectAPI is the subset of *s3.Client the repository uses.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Options holds the connection settings of an S3-compatible store.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Client builds a path-style client with static credentials, which is
// what MinIO expects.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.AccessKey,
			o.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	return s3.NewFromConfig(cfg, func(opt *s3.Options) {
		if o.BaseEndpoint != "" {
			opt.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		opt.UsePathStyle = true
	}), nil
}

// S3Repository stores each note as a JSON object under notes/<owner>/<id>.json.
// Note ids are unique across owners: ids/<id> holds the owner that claimed
// the id and is written before the note itself.
type S3Repository struct {
	api    ObjectAPI
	bucket string
}

func NewS3Repository(api ObjectAPI, bucket string) *S3Repository {
	return &S3Repository{api: api, bucket: bucket}
}

func ownerPrefix(owner string) string {
	return "notes/" + url.PathEscape(owner) + "/"
}

func objectKey(owner, id string) string {
	return ownerPrefix(owner) + url.PathEscape(id) + ".json"
}

func claimKey(id string) string {
	return "ids/" + url.PathEscape(id)
}

// Insert claims n.ID and writes n. It fails with ErrorAlreadyExists when
// another owner holds the id or the note is already stored. A claim left by an
// interrupted insert of the same owner is reused. Both writes are conditional,
// so a concurrent insert of the same id loses cleanly.
func (r *S3Repository) Insert(ctx context.Context, n *models.Note) error {
	claim := claimKey(n.ID)

	holder, err := r.getObject(ctx, claim)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		err = r.putObject(ctx, claim, []byte(n.Owner), "text/plain", aws.String("*"))
		if isPreconditionFailed(err) {
			return common.ErrorAlreadyExists
		}
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case string(holder) != n.Owner:
		return common.ErrorAlreadyExists
	}

	err = r.put(ctx, objectKey(n.Owner, n.ID), n, aws.String("*"))
	if isPreconditionFailed(err) {
		return common.ErrorAlreadyExists
	}
	if err != nil {
		r.release(ctx, n.ID, n.Owner)
		return err
	}
	return nil
}

// UpdateByID rewrites the stored object with f applied.
func (r *S3Repository) UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error {
	key := objectKey(owner, id)

	n, err := r.get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	f.Apply(n)
	return r.put(ctx, key, n, nil)
}

// DeleteByID removes the note and then frees its id. A retry after a failed
// release finds the note gone and frees the id again.
func (r *S3Repository) DeleteByID(ctx context.Context, id, owner string) error {
	if err := r.deleteObject(ctx, objectKey(owner, id)); err != nil {
		return err
	}

	data, err := r.getObject(ctx, claimKey(id))
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if string(data) != owner {
		return nil
	}
	return r.deleteObject(ctx, claimKey(id))
}

// release frees an id claimed by an insert that did not complete.
func (r *S3Repository) release(ctx context.Context, id, owner string) {
	data, err := r.getObject(ctx, claimKey(id))
	if err == nil && string(data) == owner {
		_ = r.deleteObject(ctx, claimKey(id))
	}
}

func (r *S3Repository) deleteObject(ctx context.Context, key string) error {
	if _, err := r.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &r.bucket, Key: &key}); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object error: %w", err)
	}
	return nil
}

// SelectAll lists the owner prefix and loads every object. Objects removed
// between the listing and the read are skipped.
func (r *S3Repository) SelectAll(ctx context.Context, owner string) ([]models.Note, error) {
	prefix := ownerPrefix(owner)
	p := s3.NewListObjectsV2Paginator(r.api, &s3.ListObjectsV2Input{
		Bucket: &r.bucket,
		Prefix: &prefix,
	})

	result := []models.Note{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects error: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			n, err := r.get(ctx, key)
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			result = append(result, *n)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *S3Repository) Ping(ctx context.Context) error {
	_, err := r.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &r.bucket})
	return err
}

func (r *S3Repository) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{Bucket: &r.bucket, Key: &key})
	if isNotFound(err) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get object error: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object error: %w", err)
	}
	return data, nil
}

func (r *S3Repository) get(ctx context.Context, key string) (*models.Note, error) {
	data, err := r.getObject(ctx, key)
	if err != nil {
		return nil, err
	}
	var n models.Note
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode object %s: %w", key, err)
	}
	return &n, nil
}

func (r *S3Repository) put(ctx context.Context, key string, n *models.Note, ifNoneMatch *string) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode note: %w", err)
	}
	return r.putObject(ctx, key, data, "application/json", ifNoneMatch)
}

func (r *S3Repository) putObject(ctx context.Context, key string, data []byte, contentType string, ifNoneMatch *string) error {
	_, err := r.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &r.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		IfNoneMatch: ifNoneMatch,
	})
	if err != nil {
		return fmt.Errorf("put object error: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var (
		nf  *types.NotFound
		nsk *types.NoSuchKey
	)
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}
