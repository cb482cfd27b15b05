// Package frontend provides the interface bridging network frontends and
// tracker logic.
package frontend

import (
	"context"

	"github.com/swarmd/swarmd/bittorrent"
)

// TrackerLogic is the interface used by a frontend in order to: (1) generate
// a response from a parsed request, and (2) asynchronously observe anything
// after the response has been delivered to the client.
type TrackerLogic interface {
	// HandleAnnounce generates a response for an Announce.
	//
	// Returned errors of type bittorrent.ClientError are safe to relay to
	// the client; all other errors are internal.
	HandleAnnounce(context.Context, *bittorrent.AnnounceRequest) (*bittorrent.AnnounceResponse, error)

	// AfterAnnounce does something with the results of an Announce after
	// it has been completed.
	AfterAnnounce(context.Context, *bittorrent.AnnounceRequest, *bittorrent.AnnounceResponse)
}
