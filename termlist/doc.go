// Package termlist defines the term iterator abstraction and the union merge
// used to combine term lists from several shards or documents.
//
// A TermList yields terms in strictly ascending byte order. Lists are
// combined pairwise with Or (strict) or FreqAdderOr (frequency adding) into a
// binary merge tree which owns its children:
//
//	tree := termlist.Build(lists, func(l, r termlist.TermList) termlist.TermList {
//	    return termlist.NewOr(l, r)
//	})
//	defer tree.Close()
//
//	for {
//	    if err := tree.Next(); err != nil { ... }
//	    if tree.AtEnd() { break }
//	    fmt.Println(string(tree.Term()))
//	}
//
// # Thread Safety
//
// A TermList is used by one goroutine at a time. Independent trees may be
// walked concurrently as long as they share no list instances.
package termlist
