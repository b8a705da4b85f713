// Package demo holds the two collaborators used to run the monitor locally:
// a peer service exposing /verification, and a sender that pushes random
// sensor readings to the monitor's /data endpoint.
package demo
