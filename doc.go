// Package termexp suggests terms with which to expand a query, given a set
// of documents the user judged relevant.
//
// A DB combines one or more shards. Each shard is a kv.Table written by a
// shard.Writer and can live in memory, in an embedded Badger store, in an
// sstable file on local disk or object storage, or in a DynamoDB table.
//
// # Quick Start
//
//	mem := kv.NewMemTable()
//	w, _ := shard.NewWriter(mem)
//	w.AddDocument([]shard.Posting{{Term: []byte("apple"), WDF: 2}})
//	w.Flush()
//
//	db, _ := termexp.Open(ctx, []kv.Table{mem})
//	defer db.Close()
//
//	eset, _ := db.ExpandSet(ctx, termexp.NewRSet(1),
//		termexp.WithMaxItems(5),
//		termexp.WithExcludeTerms([]byte("apple")),
//	)
//	for _, t := range eset.All() {
//		fmt.Printf("%s %.3f\n", t.Term, t.Weight)
//	}
//
// # Document Ids
//
// Document ids are global. With N shards, local document l of shard s is
// global document (l-1)*N + s + 1, so consecutive ids round-robin over the
// shards. DB.GlobalID and DB.Locate convert between the two.
//
// # Weighting
//
// ExpandSet weights candidates with expand.Prob by default. WithScheme
// selects expand.Bo1 instead. Term frequencies are estimated from the
// shards the RSet touches unless WithExactTermFreq is given.
//
// # Configuration
//
// Package config describes a database in YAML; OpenConfig opens it:
//
//	cfg, _ := config.Load("termexp.yaml")
//	db, _ := termexp.OpenConfig(ctx, cfg)
package termexp
