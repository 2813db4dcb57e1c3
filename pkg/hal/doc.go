// Package hal provides the resource model for hypermedia (HAL) services.
//
// # Overview
//
// A HAL document is unpacked into a Resource: plain state, embedded child
// resources and affordances built from its links. An Affordance is a named
// operation (method and href, possibly a URI template) that can be called
// through an Invoker. Collection responses are wrapped in a Container, which
// materializes items lazily by following "next" and "prev" links as indices
// are requested.
//
// The halclient package wires configuration, request signing, retries and
// discovery, and returns a Client exposing the published resources.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/hal-client/pkg/hal"
//	  "github.com/fivetwenty-io/hal-client/pkg/halclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := halclient.New(ctx, &hal.Config{
//	    Endpoint:   "https://api.example.com",
//	    PublicKey:  "public",
//	    PrivateKey: "private",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  products, err := cli.List(ctx, "products", "list", hal.Call{})
//	  if err != nil { log.Fatal(err) }
//
//	  // Only the page holding index 120 is fetched.
//	  item, err := products.Get(ctx, 120)
//	  if err != nil { log.Fatal(err) }
//	  log.Println(item.State["name"])
//	}
//
// Pagination
//
// While paged, Len reports the declared total and Get fetches pages on
// demand. Structural edits (Insert, Delete, Append, Reverse, Concat) finish
// the container first: every page is fetched and items are reindexed from
// zero.
//
// Errors
//
// Failed requests return *TransportError, which unwraps to a kind such as
// ErrNotFound or ErrUnauthorized:
//
//	if hal.IsNotFound(err) { /* ... */ }
//	var terr *hal.TransportError
//	if errors.As(err, &terr) { log.Println(terr.StatusCode, terr.Payload) }
package hal
