//go:build !integration

package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"chitfund-backend/internal/domain"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3ProofStore_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("should upload under the configured prefix", func(t *testing.T) {
		fp := &fakePutter{}
		s := &S3ProofStore{client: fp, bucket: "proofs", prefix: "/offline/"}

		ref, err := s.Put(ctx, "pay-1.png", "image/png", []byte{1, 2, 3})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ref != "s3://proofs/offline/pay-1.png" {
			t.Errorf("unexpected ref %s", ref)
		}
		if aws.ToString(fp.input.Key) != "offline/pay-1.png" || aws.ToString(fp.input.ContentType) != "image/png" {
			t.Errorf("unexpected input %+v", fp.input)
		}
		if len(fp.body) != 3 {
			t.Errorf("expected 3 bytes uploaded, got %d", len(fp.body))
		}
	})

	t.Run("should reject empty payloads", func(t *testing.T) {
		s := &S3ProofStore{client: &fakePutter{}, bucket: "proofs"}
		if _, err := s.Put(ctx, "k", "image/png", nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should surface upload errors", func(t *testing.T) {
		s := &S3ProofStore{client: &fakePutter{err: errors.New("denied")}, bucket: "proofs"}
		if _, err := s.Put(ctx, "k", "image/png", []byte{1}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestMemoryProofStore(t *testing.T) {
	s := NewMemoryProofStore()
	ref, err := s.Put(context.Background(), "a", "image/jpeg", []byte("x"))
	if err != nil || ref != "mem://a" {
		t.Fatalf("unexpected %s %v", ref, err)
	}
	if b, ok := s.Get("a"); !ok || string(b) != "x" {
		t.Errorf("expected stored bytes")
	}
}
