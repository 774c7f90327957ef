// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package services adapts components without a Serve(ctx) method to the
suture v4 supervision model.

Most Fleetwatch workers (persistence sink, idle reaper, live hub, event
forwarder, WAL retry loop) already implement suture.Service and are added
to the tree directly. This package covers the two remaining lifecycles:

  - HTTPServerService: ListenAndServe / Shutdown, as on *http.Server.
  - CloserService: resources that only need closing on shutdown, such as
    the feed connection and the NATS publisher.

Both return ctx.Err() on a clean shutdown so suture does not restart them,
and implement fmt.Stringer so supervisor logs name the service.

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddIngestService(services.NewCloserService("ais-feed", svc, 5*time.Second))
*/
package services
