package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/history"
	"github.com/ehsan18t/easy-mingw-installer/pkg/infra/publish"
)

// Storage holds the optional artifact bucket and build history settings
type Storage struct {
	GCSBucket           string
	GCSPrefix           string
	FirestoreProjectID  string
	FirestoreDatabaseID string
	FirestoreCollection string
	CredentialsFile     string
}

// Flags returns CLI flags for storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket receiving installers and release notes",
			Destination: &c.GCSBucket,
			Sources:     cli.EnvVars("EASY_MINGW_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object prefix inside the bucket",
			Destination: &c.GCSPrefix,
			Sources:     cli.EnvVars("EASY_MINGW_GCS_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Google Cloud project of the build history database",
			Destination: &c.FirestoreProjectID,
			Sources:     cli.EnvVars("EASY_MINGW_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Destination: &c.FirestoreDatabaseID,
			Sources:     cli.EnvVars("EASY_MINGW_FIRESTORE_DATABASE_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection of build reports",
			Value:       history.DefaultCollection,
			Destination: &c.FirestoreCollection,
			Sources:     cli.EnvVars("EASY_MINGW_FIRESTORE_COLLECTION"),
		},
		&cli.StringFlag{
			Name:        "google-credentials-file",
			Usage:       "Service account key file, application default credentials when omitted",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("EASY_MINGW_GOOGLE_CREDENTIALS_FILE"),
		},
	}
}

func (c *Storage) clientOptions() []option.ClientOption {
	if c.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}
}

// Sinks holds the configured optional sinks. Nil fields are disabled.
type Sinks struct {
	Store    interfaces.ArtifactStore
	Recorder interfaces.BuildRecorder
	closers  []func() error
}

// Close releases the clients behind the sinks
func (s *Sinks) Close() {
	for _, c := range s.closers {
		_ = c()
	}
}

// Configure creates the sinks that have settings
func (c *Storage) Configure(ctx context.Context) (*Sinks, error) {
	sinks := &Sinks{}

	if c.GCSBucket != "" {
		store, err := publish.NewGCS(ctx, c.GCSBucket, c.GCSPrefix, c.clientOptions()...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure artifact store")
		}
		sinks.Store = store
		sinks.closers = append(sinks.closers, store.Close)
	}

	if c.FirestoreProjectID != "" {
		recorder, err := history.NewFirestore(ctx, c.FirestoreProjectID, c.FirestoreDatabaseID, c.FirestoreCollection, c.clientOptions()...)
		if err != nil {
			sinks.Close()
			return nil, goerr.Wrap(err, "failed to configure build history")
		}
		sinks.Recorder = recorder
		sinks.closers = append(sinks.closers, recorder.Close)
	}

	return sinks, nil
}
