package crypto

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

// reverseKMS "encrypts" by reversing bytes.
type reverseKMS struct {
	keyName string
	err     error
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

func (f *reverseKMS) Encrypt(_ context.Context, req *kmspb.EncryptRequest, _ ...gax.CallOption) (*kmspb.EncryptResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keyName = req.Name
	return &kmspb.EncryptResponse{Ciphertext: reverse(req.Plaintext)}, nil
}

func (f *reverseKMS) Decrypt(_ context.Context, req *kmspb.DecryptRequest, _ ...gax.CallOption) (*kmspb.DecryptResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &kmspb.DecryptResponse{Plaintext: reverse(req.Ciphertext)}, nil
}

func TestKMSEncryptDecrypt(t *testing.T) {
	fake := &reverseKMS{}
	k := NewKMS(fake, "projects/p/locations/l/keyRings/r/cryptoKeys/k")

	sealed, err := k.KmsEncrypt(context.Background(), "token-123")
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	if sealed == "token-123" {
		t.Fatalf("expected ciphertext to differ from plaintext")
	}
	if fake.keyName != "projects/p/locations/l/keyRings/r/cryptoKeys/k" {
		t.Fatalf("unexpected key name %q", fake.keyName)
	}

	plain, err := k.KmsDecrypt(context.Background(), sealed)
	if err != nil {
		t.Fatalf("decrypt error: %v", err)
	}
	if plain != "token-123" {
		t.Fatalf("expected token-123, got %q", plain)
	}
}

func TestKMSErrorsAreEncryptionErrors(t *testing.T) {
	k := NewKMS(&reverseKMS{err: errors.New("kms down")}, "key")

	_, err := k.KmsEncrypt(context.Background(), "x")
	var encErr *errs.EncryptionError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncryptionError, got %T", err)
	}

	_, err = k.KmsDecrypt(context.Background(), "%%%")
	if errs.CodeOf(err) != errs.CodeEncryptionError {
		t.Fatalf("expected encryption_error for bad base64, got %s", errs.CodeOf(err))
	}
}
