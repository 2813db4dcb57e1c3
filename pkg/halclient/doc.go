// Package halclient provides the entry point for constructing a client of a
// HAL hypermedia service that implements the hal.Client interface.
//
// New validates the configuration, builds the signed transport and sends
// OPTIONS to the service root to discover the resources it publishes. Every
// operation afterwards is reached through the affordances of those resources.
//
// Quick start
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
//
//	  // HMAC signed requests with a key pair:
//	  cli, err := halclient.NewWithKeys(ctx, "https://api.example.com", "public", "private")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with a bearer token and a way to renew it:
//	  cli, err = halclient.New(ctx, &hal.Config{
//	    Endpoint:     "https://api.example.com",
//	    Token:        "eyJhbGciOi...",
//	    RefreshToken: renewToken,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  products, err := cli.List(ctx, "products", "list", hal.Call{})
//	  if err != nil { log.Fatal(err) }
//
//	  first, err := products.Get(ctx, 0)
//	  if err != nil { log.Fatal(err) }
//	  _ = first
//	}
//
// # TLS and development mode
//
// For local development, you can set Config.SkipTLSVerify=true. This is gated by
// the environment variable HAL_DEV_MODE to avoid accidental insecure usage in
// production environments.
package halclient
