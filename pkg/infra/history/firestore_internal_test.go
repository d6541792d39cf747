package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

func TestToDoc(t *testing.T) {
	started := time.Date(2025, time.June, 9, 10, 0, 0, 0, time.UTC)
	report := &model.BuildReport{
		ID:         "b-1",
		Release:    "GCC 15.1.0 (with POSIX threads) + MinGW-w64 13.0.0 (UCRT) - release 4",
		ReleaseTag: "15.1.0posix-13.0.0-ucrt-r4",
		BuildTag:   "2025.06.09",
		Results: []model.ArchResult{
			{Arch: "64", Asset: "winlibs-x86_64.7z", Installer: "out/64.exe", Digests: []model.Digest{{Algorithm: "SHA256", Value: "abc"}}},
			{Arch: "32", Error: "no matching asset"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
	}

	doc := toDoc(report)
	gt.Value(t, doc.ID).Equal("b-1")
	gt.Number(t, doc.Failed).Equal(1)
	gt.Number(t, len(doc.Results)).Equal(2)
	gt.Value(t, doc.Results[0].Digests).Equal(map[string]string{"SHA256": "abc"})
	gt.Value(t, doc.Results[1].Error).Equal("no matching asset")
	gt.Value(t, doc.FinishedAt.Sub(doc.StartedAt)).Equal(time.Minute)
}

func TestFirestore_Record_WithEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}

	ctx := context.Background()
	store, err := NewFirestore(ctx, "test-project", "", "")
	gt.NoError(t, err)
	defer store.Close()

	report := &model.BuildReport{ID: uuid.NewString(), BuildTag: "2025.06.09", StartedAt: time.Now()}
	gt.NoError(t, store.Record(ctx, report))

	snap, err := store.client.Collection(DefaultCollection).Doc(report.ID).Get(ctx)
	gt.NoError(t, err)

	var got buildDoc
	gt.NoError(t, snap.DataTo(&got))
	gt.Value(t, got.BuildTag).Equal("2025.06.09")
}

func TestFirestore_Record_RequiresID(t *testing.T) {
	f := &Firestore{collection: DefaultCollection}
	gt.Error(t, f.Record(context.Background(), &model.BuildReport{}))
}
