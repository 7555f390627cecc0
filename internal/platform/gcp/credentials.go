// Package gcp resolves Google Cloud credentials for the storage and
// warehouse clients.
package gcp

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	bigquery "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// Scopes requested for the pipeline's service account.
var Scopes = []string{
	storage.DevstorageReadWriteScope,
	bigquery.BigqueryScope,
}

// Credentials bundles the resolved credentials and the project they target.
type Credentials struct {
	ProjectID string
	Options   []option.ClientOption
}

// Resolve loads credentials from credentialsFile, or application default
// credentials when it is empty. projectID overrides the credentials' project.
func Resolve(ctx context.Context, projectID, credentialsFile string) (*Credentials, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile != "" {
		data, readErr := os.ReadFile(credentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("read credentials file %s: %w", credentialsFile, readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, Scopes...)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, Scopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve google credentials: %w", err)
	}

	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is not set and credentials carry no project")
	}
	return &Credentials{
		ProjectID: projectID,
		Options:   []option.ClientOption{option.WithCredentials(creds)},
	}, nil
}
