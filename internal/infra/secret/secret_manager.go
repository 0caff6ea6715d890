// internal/infra/secret/secret_manager.go
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("secret: secret manager not configured")

// Provider reads secret payloads from Secret Manager.
type Provider struct {
	sm        *secretmanager.Client
	projectID string
}

func NewProvider(ctx context.Context, projectID string, opts ...option.ClientOption) (*Provider, error) {
	sm, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secret: secretmanager.NewClient: %w", err)
	}
	return &Provider{sm: sm, projectID: strings.TrimSpace(projectID)}, nil
}

// Access returns the trimmed payload of ref. See ResourceName for accepted forms.
func (p *Provider) Access(ctx context.Context, ref string) (string, error) {
	if p == nil || p.sm == nil {
		return "", ErrNotConfigured
	}
	name, err := ResourceName(p.projectID, ref)
	if err != nil {
		return "", err
	}

	resp, err := p.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("secret: AccessSecretVersion failed (%s): %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secret: empty payload (%s)", name)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

func (p *Provider) Close() error {
	if p == nil || p.sm == nil {
		return nil
	}
	return p.sm.Close()
}

// ResourceName expands ref into a full secret version name.
//   - projects/<p>/secrets/<id>/versions/<v> is used as-is
//   - projects/<p>/secrets/<id> gets /versions/latest
//   - <id> or <id>:<version> is resolved in projectID
func ResourceName(projectID, ref string) (string, error) {
	r := strings.TrimSpace(ref)
	if r == "" {
		return "", errors.New("secret: ref is empty")
	}
	if strings.HasPrefix(r, "projects/") {
		if strings.Contains(r, "/versions/") {
			return r, nil
		}
		return r + "/versions/latest", nil
	}

	prj := strings.TrimSpace(projectID)
	if prj == "" {
		return "", fmt.Errorf("secret: projectID is empty (ref=%s)", r)
	}
	id, ver := r, "latest"
	if i := strings.LastIndex(r, ":"); i > 0 && i < len(r)-1 {
		id, ver = r[:i], r[i+1:]
	}
	return "projects/" + prj + "/secrets/" + id + "/versions/" + ver, nil
}
