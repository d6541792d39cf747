package history

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// DefaultCollection holds one document per build
const DefaultCollection = "builds"

// Firestore records build reports as Firestore documents keyed by build ID
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore connects to databaseID of projectID
func NewFirestore(ctx context.Context, projectID, databaseID, collection string, opts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	return &Firestore{client: client, collection: collection}, nil
}

type buildDoc struct {
	ID          string          `firestore:"id"`
	Release     string          `firestore:"release"`
	ReleaseTag  string          `firestore:"release_tag"`
	BuildTag    string          `firestore:"build_tag"`
	PreviousTag string          `firestore:"previous_tag"`
	Results     []archResultDoc `firestore:"results"`
	Failed      int             `firestore:"failed"`
	StartedAt   time.Time       `firestore:"started_at"`
	FinishedAt  time.Time       `firestore:"finished_at"`
}

type archResultDoc struct {
	Arch      string            `firestore:"arch"`
	Asset     string            `firestore:"asset"`
	Installer string            `firestore:"installer"`
	Digests   map[string]string `firestore:"digests"`
	Error     string            `firestore:"error"`
}

func toDoc(report *model.BuildReport) buildDoc {
	doc := buildDoc{
		ID:          report.ID,
		Release:     report.Release,
		ReleaseTag:  report.ReleaseTag,
		BuildTag:    report.BuildTag,
		PreviousTag: report.PreviousTag,
		Failed:      len(report.Failed()),
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
	}
	for _, r := range report.Results {
		digests := make(map[string]string, len(r.Digests))
		for _, d := range r.Digests {
			digests[d.Algorithm] = d.Value
		}
		doc.Results = append(doc.Results, archResultDoc{
			Arch:      r.Arch,
			Asset:     r.Asset,
			Installer: r.Installer,
			Digests:   digests,
			Error:     r.Error,
		})
	}
	return doc
}

// Record stores report, replacing any document with the same ID
func (f *Firestore) Record(ctx context.Context, report *model.BuildReport) error {
	if report == nil || report.ID == "" {
		return goerr.New("build report without ID")
	}

	if _, err := f.client.Collection(f.collection).Doc(report.ID).Set(ctx, toDoc(report)); err != nil {
		return goerr.Wrap(err, "failed to record build",
			goerr.V("collection", f.collection),
			goerr.V("id", report.ID),
		)
	}
	return nil
}

// Close releases the firestore client
func (f *Firestore) Close() error {
	return f.client.Close()
}
