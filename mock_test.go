package vecstore

import "context"

// mockStore is a hand-rolled Store double recording calls.
type mockStore struct {
	addDocs    []Document
	addErr     error
	deleteIDs  []string
	deleteOK   bool
	searchReq  *SearchRequest
	searchDocs []Document
	searchErr  error
	created    []string
	createErr  error
	dropped    []string
	dropErr    error
}

func (m *mockStore) Add(_ context.Context, docs []Document) error {
	m.addDocs = append(m.addDocs, docs...)
	return m.addErr
}

func (m *mockStore) Delete(_ context.Context, ids []string) bool {
	m.deleteIDs = append(m.deleteIDs, ids...)
	return m.deleteOK
}

func (m *mockStore) SimilaritySearch(_ context.Context, req *SearchRequest) ([]Document, error) {
	m.searchReq = req
	return m.searchDocs, m.searchErr
}

func (m *mockStore) CreateIndex(_ context.Context, name string) error {
	m.created = append(m.created, name)
	return m.createErr
}

func (m *mockStore) DeleteIndex(_ context.Context, name string) error {
	m.dropped = append(m.dropped, name)
	return m.dropErr
}
