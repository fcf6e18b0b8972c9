package vecstore

import (
	"context"
	"errors"
	"testing"
)

type note struct {
	ID    string `vecstore:"id,id"`
	Text  string `vecstore:"text,content"`
	Topic string `vecstore:"topic"`
}

func TestNewIndex_SchemaError(t *testing.T) {
	type broken struct {
		ID string `vecstore:"id,id"`
	}
	if _, err := NewIndex[broken](&mockStore{}); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestTypedIndex_Add(t *testing.T) {
	store := &mockStore{}
	idx, err := NewIndex[note](store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = idx.Add(context.Background(), []note{
		{ID: "n1", Text: "first", Topic: "go"},
		{ID: "n2", Text: "second", Topic: "redis"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.addDocs) != 2 {
		t.Fatalf("stored %d documents", len(store.addDocs))
	}
	if store.addDocs[0].ID != "n1" || store.addDocs[0].Content != "first" {
		t.Errorf("document = %+v", store.addDocs[0])
	}
	if store.addDocs[1].Metadata["topic"] != "redis" {
		t.Errorf("metadata = %v", store.addDocs[1].Metadata)
	}
}

func TestTypedIndex_AddError(t *testing.T) {
	wantErr := errors.New("boom")
	idx, err := NewIndex[note](&mockStore{addErr: wantErr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := idx.Add(context.Background(), []note{{ID: "n1", Text: "x"}}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestTypedIndex_Search(t *testing.T) {
	store := &mockStore{searchDocs: []Document{
		{
			ID:       "n1",
			Content:  "first",
			Metadata: Metadata{"topic": "go", DistanceKey: 0.25},
		},
		{
			ID:       "n2",
			Content:  "second",
			Metadata: Metadata{"topic": "redis", DistanceKey: 0.75},
		},
	}}
	idx, err := NewIndex[note](store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := NewSearchRequest("query").WithTopK(2)
	hits, err := idx.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.searchReq != req {
		t.Error("request not passed through")
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits", len(hits))
	}

	first := hits[0]
	if first.Item.ID != "n1" || first.Item.Text != "first" || first.Item.Topic != "go" {
		t.Errorf("item = %+v", first.Item)
	}
	if first.Distance != 0.25 || first.Score != 0.75 {
		t.Errorf("distance/score = %v/%v", first.Distance, first.Score)
	}
}

func TestTypedIndex_SearchError(t *testing.T) {
	wantErr := errors.New("boom")
	idx, err := NewIndex[note](&mockStore{searchErr: wantErr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := idx.Search(context.Background(), NewSearchRequest("q")); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestTypedIndex_DeleteAndLifecycle(t *testing.T) {
	store := &mockStore{deleteOK: true}
	idx, err := NewIndex[note](store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ok := idx.Delete(context.Background(), []string{"n1", "n2"}); !ok {
		t.Error("delete should pass the store result through")
	}
	if len(store.deleteIDs) != 2 {
		t.Errorf("delete ids = %v", store.deleteIDs)
	}

	if err := idx.CreateIndex(context.Background(), "notes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := idx.DeleteIndex(context.Background(), "notes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 1 || store.created[0] != "notes" {
		t.Errorf("created = %v", store.created)
	}
	if len(store.dropped) != 1 || store.dropped[0] != "notes" {
		t.Errorf("dropped = %v", store.dropped)
	}
}
