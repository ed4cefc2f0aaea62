// Package handle tracks live values that own engine-side state.
//
// A Table maps small integer IDs to Go values. The runtime registers every
// parsed document in one so that closing the runtime can release the
// documents the caller never closed:
//
//	table := handle.NewTable()
//	id := table.Insert(state)
//
//	// explicit release: Drop is called exactly once
//	table.Remove(id)
//
//	// release everything still live
//	n, err := table.Close()
//
// # Observers
//
// Observers see every insertion and removal, in order:
//
//	table.Subscribe(handle.ObserverFunc(func(e handle.Event) {
//		log.Printf("document %d %s", e.ID, e.Type)
//	}))
//
// Removal is the single release path. Whichever of several concurrent
// Removes of the same ID wins calls Drop; the others return false.
package handle
