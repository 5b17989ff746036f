package store

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

// Secrets path
// projects/{project}/secrets/{prefix}-{name}/versions/latest

type platformSecretsStore struct {
	client    *secretmanager.Client
	projectID string
	prefix    string
}

func NewPlatformSecretsStore(client *secretmanager.Client, projectID string) *platformSecretsStore {
	return &platformSecretsStore{
		client:    client,
		projectID: projectID,
		prefix:    "insights",
	}
}

func (s *platformSecretsStore) secretID(name string) string {
	return fmt.Sprintf("%s-%s", s.prefix, name)
}

func (s *platformSecretsStore) secretName(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID(name))
}

func (s *platformSecretsStore) ensureSecret(ctx context.Context, name string) error {
	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: s.secretName(name)})
	if status.Code(err) == codes.NotFound {
		_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: s.secretID(name),
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{Automatic: &secretmanagerpb.Replication_Automatic{}},
				},
			},
		})
	}
	return err
}

// PutSecret adds a new version of a platform secret, creating it if needed.
func (s *platformSecretsStore) PutSecret(ctx context.Context, name, value string) error {
	if err := s.ensureSecret(ctx, name); err != nil {
		return errs.NewDatabaseError("create", "failed to create secret "+name, err)
	}
	_, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretName(name),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(value),
		},
	})
	if err != nil {
		return errs.NewDatabaseError("update", "failed to store secret "+name, err)
	}
	return nil
}

// GetSecret reads the latest version of a platform secret. An empty name
// yields an empty value so optional secrets can stay unconfigured.
func (s *platformSecretsStore) GetSecret(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(name)),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", errs.NewNotFoundError("secret " + name + " not found")
		}
		return "", errs.NewDatabaseError("read", "failed to read secret "+name, err)
	}
	return string(res.Payload.Data), nil
}
