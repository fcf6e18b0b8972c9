// Package vecstore provides a portable client contract for vector-database
// products, plus typed helpers built on top of it.
//
// The package defines the [Store] interface — add, delete, similarity search
// and index lifecycle — together with the value types every backend shares:
// [Document], [Metadata], [SearchRequest] and the [Embedder] capability that
// turns text into vectors. Concrete backends live in subpackages:
//
//   - vecstore/gemfire — GemFire vector-index service over HTTP
//   - vecstore/redis   — Redis (or Valkey) with the search module, via rueidis
//   - vecstore/openai  — Embedder implementation for OpenAI-compatible APIs
//
// Wiring a backend from a YAML config is handled by vecstore/autoconfig.
//
// # Basic usage
//
//	cfg, err := gemfire.NewConfigBuilder().
//	    WithHost("gemfire.internal").
//	    WithIndexName("articles").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := gemfire.NewStore(cfg, embedder)
//
//	err = store.Add(ctx, []vecstore.Document{
//	    {ID: "a-1", Content: "the quick brown fox", Metadata: vecstore.Metadata{"lang": "en"}},
//	})
//
//	docs, err := store.SimilaritySearch(ctx,
//	    vecstore.NewSearchRequest("fast animals").WithTopK(3).WithSimilarityThreshold(0.7))
//
// # Typed indexes
//
//	type Article struct {
//	    ID    string `vecstore:"id,id"`
//	    Title string `vecstore:"title,content"`
//	    Lang  string `vecstore:"lang"`
//	}
//
//	idx, _ := vecstore.NewIndex[Article](store)
//	_ = idx.Add(ctx, articles)
//	hits, _ := idx.Search(ctx, vecstore.NewSearchRequest("fast animals"))
package vecstore
