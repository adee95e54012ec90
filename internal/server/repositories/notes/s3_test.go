package notes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// fakeBucket is an in-memory ObjectAPI. pageSize limits ListObjectsV2 pages.
type fakeBucket struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int
	getErr   error
	failPut  string
	puts     int
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, pageSize: 1000}
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
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
		start = sort.SearchStrings(keys, *in.ContinuationToken)
	}
	end := start + f.pageSize
	out := &s3.ListObjectsV2Output{}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
		out.IsTruncated = aws.Bool(false)
	}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	if key == f.failPut {
		return nil, errors.New("slow down")
	}
	if aws.ToString(in.IfNoneMatch) == "*" {
		if _, ok := f.objects[key]; ok {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
		}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeBucket) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Repository_InsertAndSelect(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	repo := NewS3Repository(bucket, "notes")

	older := sampleNote()
	newer := &models.Note{ID: "n2", Owner: "u1", Title: "t2", Body: "b2", CreatedAt: modified, ModifiedAt: modified}
	other := &models.Note{ID: "n3", Owner: "u2", Title: "x", Body: "y", CreatedAt: modified, ModifiedAt: modified}

	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newer))
	require.NoError(t, repo.Insert(ctx, other))

	require.Contains(t, bucket.objects, "notes/u1/n1.json")

	got, err := repo.SelectAll(ctx, "u1")
	require.NoError(t, err)
	if diff := cmp.Diff([]models.Note{*newer, *older}, got); diff != "" {
		t.Fatalf("SelectAll mismatch (-want +got):\n%s", diff)
	}
}

func TestS3Repository_InsertExisting(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	repo := NewS3Repository(bucket, "notes")

	require.NoError(t, repo.Insert(ctx, sampleNote()))
	err := repo.Insert(ctx, sampleNote())
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
	require.Equal(t, 2, bucket.puts, "one claim and one note")
}

func TestS3Repository_IDsUniqueAcrossOwners(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	repo := NewS3Repository(bucket, "notes")

	require.NoError(t, repo.Insert(ctx, sampleNote()))

	theirs := sampleNote()
	theirs.Owner = "u2"
	require.ErrorIs(t, repo.Insert(ctx, theirs), common.ErrorAlreadyExists)

	// Another owner's delete leaves the note and its claim alone.
	require.NoError(t, repo.DeleteByID(ctx, "n1", "u2"))
	require.Contains(t, bucket.objects, "notes/u1/n1.json")
	require.ErrorIs(t, repo.Insert(ctx, theirs), common.ErrorAlreadyExists)

	require.NoError(t, repo.DeleteByID(ctx, "n1", "u1"))
	require.NotContains(t, bucket.objects, "ids/n1")
	require.NoError(t, repo.Insert(ctx, theirs))

	got, err := repo.SelectAll(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestS3Repository_InsertReleasesClaimWhenNoteWriteFails(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	bucket.failPut = "notes/u1/n1.json"
	repo := NewS3Repository(bucket, "notes")

	require.ErrorContains(t, repo.Insert(ctx, sampleNote()), "put object error")
	require.NotContains(t, bucket.objects, "ids/n1")

	theirs := sampleNote()
	theirs.Owner = "u2"
	require.NoError(t, repo.Insert(ctx, theirs))
}

func TestS3Repository_InsertResumesOwnClaim(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	repo := NewS3Repository(bucket, "notes")

	// Claim written, note write never happened.
	bucket.objects["ids/n1"] = []byte("u1")

	require.NoError(t, repo.Insert(ctx, sampleNote()))
	require.Contains(t, bucket.objects, "notes/u1/n1.json")
	require.ErrorIs(t, repo.Insert(ctx, sampleNote()), common.ErrorAlreadyExists)
}

func TestS3Repository_InsertClaimReadError(t *testing.T) {
	bucket := newFakeBucket()
	bucket.getErr = errors.New("access denied")
	repo := NewS3Repository(bucket, "notes")

	err := repo.Insert(context.Background(), sampleNote())
	require.ErrorContains(t, err, "get object error")
	require.Zero(t, bucket.puts)
}

func TestS3Repository_UpdateByID(t *testing.T) {
	ctx := context.Background()
	repo := NewS3Repository(newFakeBucket(), "notes")
	require.NoError(t, repo.Insert(ctx, sampleNote()))

	later := modified.Add(1)
	require.NoError(t, repo.UpdateByID(ctx, "n1", "u1", models.NoteFields{Title: "new", Body: "nb", ModifiedAt: later}))

	got, err := repo.SelectAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "new", got[0].Title)
	require.Equal(t, created, got[0].CreatedAt)
	require.True(t, later.Equal(got[0].ModifiedAt))

	require.NoError(t, repo.UpdateByID(ctx, "missing", "u1", models.NoteFields{Title: "x"}))
	require.NoError(t, repo.UpdateByID(ctx, "n1", "someone-else", models.NoteFields{Title: "x"}))

	got, err = repo.SelectAll(ctx, "someone-else")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestS3Repository_DeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := NewS3Repository(newFakeBucket(), "notes")
	require.NoError(t, repo.Insert(ctx, sampleNote()))

	require.NoError(t, repo.DeleteByID(ctx, "n1", "u1"))
	require.NoError(t, repo.DeleteByID(ctx, "n1", "u1"))

	got, err := repo.SelectAll(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestS3Repository_SelectAllPaginates(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	bucket.pageSize = 2
	repo := NewS3Repository(bucket, "notes")

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		n := sampleNote()
		n.ID = id
		require.NoError(t, repo.Insert(ctx, n))
	}

	got, err := repo.SelectAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, "a", got[0].ID, "equal creation times fall back to id order")
}

func TestObjectKey_EscapesSegments(t *testing.T) {
	require.Equal(t, "notes/a%2Fb/id%201.json", objectKey("a/b", "id 1"))
}
