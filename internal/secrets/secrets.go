package secrets

import (
	"context"
	"fmt"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/charmbracelet/log"
)

// Accessor reads the payload of a secret version.
type Accessor interface {
	AccessSecret(ctx context.Context, name string) (string, error)
}

type client struct {
	sm *secretmanager.Client
}

// New creates a Secret Manager backed Accessor. The returned teardown closes
// the underlying gRPC connection.
func New(ctx context.Context) (Accessor, func(), error) {
	sm, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("secrets: failed to create client: %w", err)
	}
	teardown := func() {
		sm.Close()
	}
	return &client{sm: sm}, teardown, nil
}

func (c *client) AccessSecret(ctx context.Context, name string) (string, error) {
	resp, err := c.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	return string(resp.GetPayload().GetData()), nil
}

// VersionName returns the resource name of the latest version of a secret.
func VersionName(projectID, secretID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretID)
}

// ResolvePassword returns the database password stored in Secret Manager, or
// fallback when the lookup is disabled or fails for any reason.
func ResolvePassword(ctx context.Context, accessor Accessor, projectID, secretID, fallback string) string {
	if accessor == nil || projectID == "" {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	name := VersionName(projectID, secretID)
	password, err := accessor.AccessSecret(ctx, name)
	if err != nil {
		log.Warn("Could not fetch secret from Secret Manager, using DB_PASSWORD", "secret", name, "error", err)
		return fallback
	}
	if password == "" {
		log.Warn("Secret Manager returned an empty password, using DB_PASSWORD", "secret", name)
		return fallback
	}
	log.Info("Database password loaded from Secret Manager", "secret", name)
	return password
}
